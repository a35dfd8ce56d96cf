// filepath: internal/cli/root.go
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version info
	Version   = "1.0.0"
	StartTime time.Time
)

// RootCmd represents the base command when called without any subcommands.
// It starts the installer's HTTP server.
var RootCmd = &cobra.Command{
	Use:   "sonerezh",
	Short: "Sonerezh setup installer",
	Long:  `Checks the server requirements, writes the database configuration, creates the schema and the first administrator of a Sonerezh instance.`,
	// PersistentPreRunE loads the configuration before any command runs.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	// RunE executes the main server logic.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	StartTime = time.Now()

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	registerFlags(RootCmd)
}
