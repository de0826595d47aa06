// Package cli implements the reactmesh command line interface.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	cfgFile string
	viper   *viper.Viper
	cfg     Config
}

// NewRootCmd creates the reactmesh root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:           "reactmesh",
		Short:         "reactmesh runs a reasoning-and-acting agent against a chat model.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(opts.viper, opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./reactmesh.yaml)")
	flags.String("provider", "", "model provider: openai, anthropic, gemini or mock")
	flags.String("model", "", "model name")
	flags.StringSlice("tools", nil, "tools to enable (search, browse, eval)")
	flags.Int("max-cycles", 0, "maximum model round trips per answer")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-backend", "", "log backend: slog or zap")

	bindings := map[string]string{
		"provider":    "provider",
		"model":       "model",
		"tools":       "tools",
		"max_cycles":  "max-cycles",
		"log.level":   "log-level",
		"log.backend": "log-backend",
	}
	for key, flag := range bindings {
		_ = opts.viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	cmd.AddCommand(newChatCmd(opts))

	return cmd
}
