package main

import (
	"fmt"
	"github.com/saddiabu4/telegram-web-app-backend/internal/auth"
	"github.com/saddiabu4/telegram-web-app-backend/internal/config"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminCreateCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one administrator account in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if repository.DetectKind(cfg.DatabaseURL) == repository.KindMemory {
				return fmt.Errorf("DATABASE_URL is required, an in-memory account would be lost on exit")
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			store, err := repository.Open(cmd.Context(), cfg.DatabaseURL, cfg.MongoDatabase)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			// tokens are never issued here, the secret may be unset
			as := auth.NewService(store.Users(), auth.NewTokens(cfg.JWTSecret, auth.TokenTTL), domain.NewValidation(), logger.Named("auth-service"))
			if err := as.Register(cmd.Context(), domain.Credentials{Email: email, Password: password}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", domain.NormalizeEmail(email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email (required)")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
