package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ordersync/internal/auth"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

var now = time.Now

// newTokenCmd mints a bearer token with the server's secret. Clients paste
// it in at sign-in.
func newTokenCmd() *cobra.Command {
	var (
		email string
		name  string
		role  string
		id    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("no JWT secret configured, tokens would not be checked")
			}

			r := models.Role(role)
			if r != models.RoleAdmin && r != models.RoleCustomer {
				return fmt.Errorf("unknown role %q", role)
			}
			if models.NormalizeEmail(email) == "" {
				return errors.New("email is required")
			}
			if id == "" {
				id = uuid.NewString()
			}

			tok, err := auth.GenerateToken(models.AuthenticatedUser{
				ID:          id,
				DisplayName: name,
				Email:       email,
				Role:        r,
			}, []byte(cfg.JWTSecret), cfg.TokenValidity, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCustomer), "customer or admin")
	cmd.Flags().StringVar(&id, "id", "", "user id (random when empty)")
	return cmd
}
