package main

import (
	"context"
	"fmt"

	"pinvault/internal/database"
	"pinvault/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadBase()
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			if err := database.AutoMigrate(a.db); err != nil {
				return err
			}
			a.logger.Info("schema up to date")
			return nil
		},
	}
}

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [reference]",
		Short: "Retry card allocation for a paid order left pending by a stock shortfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			res, err := a.services.Fulfillment.Replay(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.logger.Info("replay finished", zap.String("reference", args[0]), zap.String("outcome", res.Outcome.String()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], res.Outcome)
			return nil
		},
	}
}

func failOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fail-order [reference]",
		Short: "Mark a pending order as failed so it can be refunded outside the system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			order, err := a.services.Fulfillment.FailOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", order.Reference, order.Status)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for operator.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
