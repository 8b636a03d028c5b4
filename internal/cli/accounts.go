package cli

import (
	"context"
	"fmt"

	"resumecraft/internal/account"
	"resumecraft/internal/common"
	"resumecraft/internal/errors"
	"resumecraft/internal/storage"
	"resumecraft/internal/types"

	"github.com/spf13/cobra"
)

var (
	accountsOutput   common.CommandConfig
	accountsPassword string
	accountsProfile  string
	accountsAs       string
)

// accounts output has no text rendering
var accountFormats = []string{"json", "yaml"}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage local accounts",
	Long: `Create, verify and check accounts in the local account store,
install the default admin and client accounts, and list every account as
an admin.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if accountsOutput.OutputFormat == "" {
			accountsOutput.OutputFormat = "json"
		}
		return common.ValidateOutputFormat(accountsOutput.OutputFormat, accountFormats)
	},
}

// withAccounts opens the account store for the duration of fn
func withAccounts(ctx context.Context, fn func(*account.Service) error) error {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	store, err := storage.Open(cfg.Storage.DatabasePath())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close account store", "error", err)
		}
	}()

	return fn(account.NewService(account.NewSQLiteRepository(store), cfg.Accounts.BcryptCost, logger))
}

func writeUser(cmd *cobra.Command, user account.User) error {
	logger := getLoggerFromContext(cmd.Context())
	return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(user, accountsOutput)
}

var accountsSignupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create an unverified client account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var profile *types.ProfileData
		if accountsProfile != "" {
			in := newInputs(getConfigFromContext(ctx), getLoggerFromContext(ctx))
			defer in.Close()
			p, err := in.profile(ctx, accountsProfile)
			if err != nil {
				return err
			}
			profile = &p
		}

		return withAccounts(ctx, func(svc *account.Service) error {
			user, err := svc.Signup(ctx, args[0], accountsPassword, profile)
			if err != nil {
				return err
			}
			return writeUser(cmd, user)
		})
	},
}

var accountsVerifyCmd = &cobra.Command{
	Use:   "verify [email]",
	Short: "Mark an account as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAccounts(ctx, func(svc *account.Service) error {
			user, err := svc.Verify(ctx, args[0])
			if err != nil {
				return err
			}
			return writeUser(cmd, user)
		})
	},
}

var accountsLoginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Check credentials and print the account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAccounts(ctx, func(svc *account.Service) error {
			user, err := svc.Login(ctx, args[0], accountsPassword)
			if err != nil {
				return err
			}
			return writeUser(cmd, user)
		})
	},
}

var accountsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the default admin and client accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAccounts(ctx, func(svc *account.Service) error {
			created, err := svc.Seed(ctx)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Default accounts already present")
				return err
			}
			for _, email := range created {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", email); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account (admin only)",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if accountsAs == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "--as is required", nil)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withAccounts(ctx, func(svc *account.Service) error {
			users, err := svc.List(ctx, accountsAs)
			if err != nil {
				return err
			}
			logger := getLoggerFromContext(ctx)
			return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(users, accountsOutput)
		})
	},
}

func requirePassword(cmd *cobra.Command, args []string) error {
	if accountsPassword == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "--password is required", nil)
	}
	return nil
}

func init() {
	accountsCmd.PersistentFlags().StringVarP(&accountsOutput.OutputFile, "output", "o", "", "Output file (default: stdout)")
	accountsCmd.PersistentFlags().StringVar(&accountsOutput.OutputFormat, "format", "", "Output format: json or yaml")

	for _, cmd := range []*cobra.Command{accountsSignupCmd, accountsLoginCmd} {
		cmd.Flags().StringVarP(&accountsPassword, "password", "p", "", "Account password")
		cmd.PreRunE = requirePassword
	}
	accountsSignupCmd.Flags().StringVar(&accountsProfile, "profile", "", "Profile file to store with the account")

	accountsListCmd.Flags().StringVar(&accountsAs, "as", "", "Email of the admin account making the request")

	accountsCmd.AddCommand(accountsSignupCmd, accountsVerifyCmd, accountsLoginCmd, accountsSeedCmd, accountsListCmd)
}
