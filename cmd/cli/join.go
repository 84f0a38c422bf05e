package main

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/mandarin-waitlist/config"
	"github.com/akeren/mandarin-waitlist/domain"
	"github.com/akeren/mandarin-waitlist/domain/waitlist"
	"github.com/akeren/mandarin-waitlist/internal/locale"
	"github.com/spf13/cobra"
)

const joinTimeout = 30 * time.Second

func joinCommand() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "join <email>",
		Short: "Submit an email to the waitlist using the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, cancel := context.WithTimeout(parent, joinTimeout)
			defer cancel()

			storeConfig, err := config.NewStoreConfig()
			if err != nil {
				return err
			}
			stores, err := config.OpenStoreClients(ctx, logger, storeConfig)
			if err != nil {
				return err
			}
			defer stores.Close(logger)

			repository, err := waitlist.NewRepository(domain.StoreBackends(stores))
			if err != nil {
				return err
			}

			service := waitlist.NewWaitlistServiceFactory(repository, logger, nil).CreateService()
			result := service.Submit(locale.WithLocale(ctx, locale.Resolve(lang, "", "")), args[0])

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Outcome, result.Message)
			if result.Outcome != waitlist.Accepted {
				return fmt.Errorf("submission not accepted: %s", result.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "locale", "en", "Message locale (en or mn)")

	return cmd
}
