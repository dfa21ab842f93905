package app

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/leaf/pkg/log"
)

const configFlagName = "config"

func addConfigFlag(fs *pflag.FlagSet) {
	fs.StringP(configFlagName, "c", "", "Read configuration from the specified `FILE` (YAML, JSON or TOML). "+
		"Command line flags override file values.")
}

// loadConfig layers flag defaults, the config file, environment variables and
// explicitly set flags, then decodes the result into the options.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.viper
	fs := cmd.Flags()

	v.SetEnvPrefix(a.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if file, _ := fs.GetString(configFlagName); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", file, err)
		}
		log.Info("Loaded configuration", "file", v.ConfigFileUsed())

		if a.watchConfig {
			v.OnConfigChange(func(e fsnotify.Event) {
				log.Warn("Configuration file changed, restart required to apply it", "file", e.Name, "op", e.Op.String())
			})
			v.WatchConfig()
		}
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}
