package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarnezclutch/sioemit/pkg/pubsub"
)

// NewPingCommand checks that the configured Redis answers.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the Redis connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, _, err := resolveOptions(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := o.RedisConfig()
			if err != nil {
				return err
			}

			pub, err := pubsub.ConnectRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pub.Close()

			if err := pub.Healthcheck(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
}
