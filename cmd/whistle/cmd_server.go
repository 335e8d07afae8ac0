package whistle

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coinchimp/whistle/internal/whistle"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	addServerFlags(serverCmd.Flags())
}

var (
	serverConfig  string
	serverHost    string
	serverPort    int
	serverMetrics bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Args:  cobra.NoArgs,
	Run:   runServer,
}

func addServerFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&serverConfig, "config", "c", "", "config file (json, yaml or toml)")
	fs.StringVarP(&serverHost, "host", "a", "", "listen host")
	fs.IntVarP(&serverPort, "port", "p", 0, "listen port (default $PORT or 8080)")
	fs.BoolVar(&serverMetrics, "metrics", false, "expose prometheus metrics at /metrics")
}

// runServer passes only the flags given on the command line, so unset
// flags never mask the environment.
func runServer(cmd *cobra.Command, args []string) {
	cmdConf := make(map[string]any)
	fs := cmd.Flags()
	if fs.Changed("host") {
		cmdConf["host"] = serverHost
	}
	if fs.Changed("port") {
		cmdConf["port"] = serverPort
	}
	if fs.Changed("metrics") {
		cmdConf["metrics"] = serverMetrics
	}

	m := whistle.New()
	if err := m.CommandHTTPServer(serverConfig, cmdConf); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
