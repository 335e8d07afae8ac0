package whistle

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug")
	rootCmd.PersistentPreRun = initLog
	addServerFlags(rootCmd.Flags())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var rootCmd = &cobra.Command{
	Use:     "whistle",
	Short:   "Relay charting alerts to Discord webhooks",
	Long:    `whistle receives alert payloads at /webhook/{path} and forwards them to the Discord webhook configured for that path.`,
	Example: `DISCORD_WEBHOOKS='%5B%7B%22path%22%3A%22alerts%22%2C%22url%22%3A%22https%3A%2F%2Fdiscord.com%2Fapi%2Fwebhooks%2F...%22%7D%5D' whistle`,
	Args:    cobra.NoArgs,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Run: runServer,
}
