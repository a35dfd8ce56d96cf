// filepath: internal/cli/keys.go
package cli

import (
	"fmt"

	"sonerezh/internal/audit"
	"sonerezh/internal/logging"
	"sonerezh/internal/security"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the security keys of the configuration file",
}

var rotateKeysCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Generate a new cipher seed and salt",
	Long: `Writes a new cipher seed and salt into the configuration file.
Passwords hashed with the previous salt stop validating, so only run this before the first install.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureConfigFile(cfg)

		keys, err := security.NewKeyRewriter(cfg.Path).Rotate()
		if err != nil {
			return err
		}
		audit.NewLoggerAuditor(cfg.Logging.Audit).Log(cmd.Context(), "security.keys.rotate", "cli", cfg.Path, nil)
		logging.Log.Infof("Security keys rotated in %s.", cfg.Path)

		show, _ := cmd.Flags().GetBool("show")
		if show {
			fmt.Fprintf(cmd.OutOrStdout(), "cipher_seed = %q\nsalt = %q\n", keys.CipherSeed, keys.Salt)
		}
		return nil
	},
}

func init() {
	rotateKeysCmd.Flags().Bool("show", false, "Print the new keys")
	keysCmd.AddCommand(rotateKeysCmd)
	RootCmd.AddCommand(keysCmd)
}
