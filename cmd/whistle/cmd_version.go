package whistle

import (
	"fmt"

	"github.com/coinchimp/whistle/pkg/version"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionM, "module", "m", false, "module version information")
}

var versionM bool
var versionCmd = &cobra.Command{
	Use:   "version [-m]",
	Short: "Show the version of whistle",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.String(versionM))
	},
}
