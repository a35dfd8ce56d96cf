// filepath: internal/cli/install.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"sonerezh/internal/initconfig"
	"sonerezh/internal/logging"
	"sonerezh/internal/models"
	"sonerezh/internal/security"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// installCmd runs the same installation as the web form without a browser.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install Sonerezh from the command line",
	Long: `Runs the installer non-interactively: checks the requirements, writes the database
configuration, creates the schema and the administrator account.
Passwords can be passed through SONEREZH_DB_PASSWORD and SONEREZH_ADMIN_PASSWORD,
or the whole form through an answer file (--answers). Its passwords are cleared after a successful install.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ensureConfigFile(cfg)

		rewriter := security.NewKeyRewriter(cfg.Path)
		if keys, err := rewriter.Current(); err == nil && keys.Empty() {
			if _, err := rewriter.Rotate(); err != nil {
				return err
			}
			logging.Log.Infof("Security keys generated in %s.", cfg.Path)
		}

		installer := newInstallerService(cfg)
		var result models.InstallResult
		if answers, _ := cmd.Flags().GetString("answers"); answers != "" {
			var err error
			if result, err = initconfig.Run(ctx, installer, answers); err != nil {
				return err
			}
		} else {
			result = installer.Install(ctx, installRequestFromFlags(newInstallViper(cmd.Flags())))
		}
		if !result.Success {
			return installError(result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

var installFlags = []struct {
	key, flag, env string
}{
	{"db.datasource", "datasource", "SONEREZH_DB_DATASOURCE"},
	{"db.host", "db-host", "SONEREZH_DB_HOST"},
	{"db.login", "db-login", "SONEREZH_DB_LOGIN"},
	{"db.password", "db-password", "SONEREZH_DB_PASSWORD"},
	{"db.database", "db-name", "SONEREZH_DB_NAME"},
	{"user.username", "username", "SONEREZH_ADMIN_USERNAME"},
	{"user.email", "email", "SONEREZH_ADMIN_EMAIL"},
	{"user.password", "password", "SONEREZH_ADMIN_PASSWORD"},
	{"setting.convert_to", "convert-to", ""},
	{"setting.quality", "quality", ""},
}

func init() {
	addInstallFlags(installCmd.Flags())
	RootCmd.AddCommand(installCmd)
}

func addInstallFlags(f *pflag.FlagSet) {
	f.String("answers", "", "TOML answer file with [database], [admin] and [setting] tables. Overrides the other flags.")
	f.String("datasource", "sqlite", "Database backend: mysql, pgsql or sqlite.")
	f.String("db-host", "", "Database host, optionally with :port.")
	f.String("db-login", "", "Database user.")
	f.String("db-password", "", "Database password.")
	f.String("db-name", "", "Database name, or the file path for sqlite.")
	f.String("username", "admin", "Administrator username.")
	f.String("email", "", "Administrator e-mail.")
	f.String("password", "", "Administrator password.")
	f.String("convert-to", "mp3", "Target format of automatic conversion.")
	f.Int("quality", 256, "Conversion bitrate in kbps.")
}

func newInstallViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	for _, o := range installFlags {
		if o.env != "" {
			_ = v.BindEnv(o.key, o.env)
		}
		if f := flags.Lookup(o.flag); f != nil {
			_ = v.BindPFlag(o.key, f)
		}
	}
	return v
}

func installRequestFromFlags(v *viper.Viper) models.InstallRequest {
	password := v.GetString("user.password")
	return models.InstallRequest{
		DB: models.InstallDatabase{
			Datasource: models.Datasource(v.GetString("db.datasource")),
			Host:       v.GetString("db.host"),
			Login:      v.GetString("db.login"),
			Password:   v.GetString("db.password"),
			Database:   v.GetString("db.database"),
		},
		User: models.InstallUser{
			Username:        v.GetString("user.username"),
			Email:           v.GetString("user.email"),
			Password:        password,
			ConfirmPassword: password,
		},
		Setting: models.InstallSetting{
			ConvertTo: v.GetString("setting.convert_to"),
			Quality:   v.GetInt("setting.quality"),
		},
	}
}

// installError folds the result and its field errors into a single error.
func installError(result models.InstallResult) error {
	var b strings.Builder
	b.WriteString(result.Message)
	for field, messages := range result.FieldErrors {
		fmt.Fprintf(&b, "\n  %s: %s", field, strings.Join(messages, ", "))
	}
	return fmt.Errorf("%s", b.String())
}
