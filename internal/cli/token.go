package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hotel-reservation/internal/utils"
)

// NewTokenCommand returns the token command. Accounts live outside this
// service; the command mints access tokens for local use and tests.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID uint64
		role   string
		ttl    time.Duration
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			role = strings.ToUpper(role)
			if role != utils.RoleCustomer && role != utils.RoleAdmin {
				return fmt.Errorf("role must be %s or %s", utils.RoleCustomer, utils.RoleAdmin)
			}
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}
			tok, err := utils.NewAccessToken(secret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&userID, "user", 0, "user ID placed in the subject")
	cmd.Flags().StringVar(&role, "role", utils.RoleCustomer, "CUSTOMER or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $JWT_SECRET)")
	return cmd
}
