// Package cli implements the sioemit command line tool.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarnezclutch/sioemit/internal/config"
	"github.com/sarnezclutch/sioemit/internal/logger"
	"github.com/sarnezclutch/sioemit/pkg/sio"
)

// NewRootCommand constructs the sioemit root command with the emit and
// ping subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sioemit",
		Short:         "Publish Socket.IO events through Redis",
		Long:          "sioemit publishes one Socket.IO event on the Redis bus gateway servers subscribe to.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("key", "", "Channel key; topics become <key>#emitter#... (env SIO_EMITTER_KEY)")
	root.PersistentFlags().String("redis", "", "Redis URL, e.g. redis://localhost:6379/0 (env REDIS_URL)")
	root.PersistentFlags().String("host", "", "Redis host, used when no URL is given (env REDIS_HOST)")
	root.PersistentFlags().String("port", "", "Redis port, used when no URL is given (env REDIS_PORT)")
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (env LOG_LEVEL)")

	root.AddCommand(NewEmitCommand())
	root.AddCommand(NewPingCommand())
	return root
}

// resolveOptions reads the environment and applies flag overrides. The
// logger config comes from the shared cache; overrides apply to the copy.
func resolveOptions(flags *pflag.FlagSet) (sio.Options, logger.Config, error) {
	var (
		o    sio.Options
		lcfg logger.Config
	)
	if err := config.Parse(&o); err != nil {
		return o, lcfg, err
	}
	if err := config.Load(&lcfg); err != nil {
		return o, lcfg, err
	}

	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("key", &o.Key)
	override("redis", &o.Redis.ConnectionURL)
	override("host", &o.Host)
	override("port", &o.Port)
	override("log-level", &lcfg.Level)

	return o, lcfg, nil
}
