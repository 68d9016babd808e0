package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/activity"
	"github.com/me-cbr/por-onde-andei/internal/app"
	"github.com/me-cbr/por-onde-andei/internal/storage"
)

type accountView struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ImageURI  string `json:"image_uri,omitempty"`
	Biometric bool   `json:"biometric_enabled"`
}

func viewAccount(account *storage.Account) accountView {
	return accountView{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		ImageURI:  account.ImageURI,
		Biometric: account.BiometricEnabled,
	}
}

func newRegisterCommand(deps commandDeps) *cobra.Command {
	var name string
	var password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				pw := password
				if pw == "" {
					var err error
					pw, err = promptPassword(deps.out, "Password: ")
					if err != nil {
						return err
					}
				}

				account, err := rt.auth.Register(ctx, app.RegisterRequest{
					Email:    args[0],
					Name:     name,
					Password: pw,
				})
				if err != nil {
					return err
				}
				if _, err := rt.auth.Login(ctx, args[0], pw); err != nil {
					return err
				}

				rt.logger.Info("account registered", "account_id", account.ID)
				rt.note(ctx, activity.Event{Action: activity.ActionAccountRegister, OwnerID: account.ID})
				if deps.globals.JSON {
					return printJSON(deps.out, viewAccount(account))
				}
				_, err = fmt.Fprintf(deps.out, "registered %s (id %d)\n", account.Email, account.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the account")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLoginCommand(deps commandDeps) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Start a session for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				pw := password
				if pw == "" {
					var err error
					pw, err = promptPassword(deps.out, "Password: ")
					if err != nil {
						return err
					}
				}

				account, err := rt.auth.Login(ctx, args[0], pw)
				if err != nil {
					return err
				}

				rt.logger.Info("logged in", "account_id", account.ID)
				rt.note(ctx, activity.Event{Action: activity.ActionAccountLogin, OwnerID: account.ID})
				if deps.globals.JSON {
					return printJSON(deps.out, viewAccount(account))
				}
				_, err = fmt.Fprintf(deps.out, "logged in as %s\n", account.Email)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End every stored session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.auth.Current(ctx)
				if err != nil {
					return err
				}
				if err := rt.auth.Logout(ctx); err != nil {
					return err
				}
				if account != nil {
					rt.note(ctx, activity.Event{Action: activity.ActionAccountLogout, OwnerID: account.ID})
				}
				_, err = fmt.Fprintln(deps.out, "logged out")
				return err
			})
		},
	}
}

func newWhoamiCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.auth.Current(ctx)
				if err != nil {
					return err
				}
				if account == nil {
					_, err := fmt.Fprintln(deps.out, "not logged in")
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, viewAccount(account))
				}
				_, err = fmt.Fprintf(deps.out, "%s <%s>\n", account.Name, account.Email)
				return err
			})
		},
	}
}

func newProfileCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the logged-in account's profile",
	}
	cmd.AddCommand(newProfileShowCommand(deps))
	cmd.AddCommand(newProfileUpdateCommand(deps))
	return cmd
}

func newProfileShowCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the logged-in account's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, viewAccount(account))
				}
				_, err = fmt.Fprintf(deps.out, "name=%s email=%s image=%s\n", account.Name, account.Email, account.ImageURI)
				return err
			})
		},
	}
}

func newProfileUpdateCommand(deps commandDeps) *cobra.Command {
	var name string
	var image string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update name and optionally the profile image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				if err := rt.auth.UpdateProfile(ctx, account.ID, app.UpdateProfileRequest{
					Name:     name,
					ImageURI: image,
				}); err != nil {
					return err
				}
				rt.note(ctx, activity.Event{Action: activity.ActionProfileUpdate, OwnerID: account.ID})
				_, err = fmt.Fprintln(deps.out, "profile updated")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&image, "image", "", "New profile image URI (kept when omitted)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBiometricCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biometric",
		Short: "Manage the biometric unlock flag",
	}
	cmd.AddCommand(newBiometricSetCommand(deps, "enable", true))
	cmd.AddCommand(newBiometricSetCommand(deps, "disable", false))
	cmd.AddCommand(newBiometricStatusCommand(deps))
	return cmd
}

func newBiometricSetCommand(deps commandDeps, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: use + " biometric unlock for the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				if err := rt.auth.SetBiometric(ctx, account.ID, enabled); err != nil {
					return err
				}
				rt.note(ctx, activity.Event{
					Action:  activity.ActionBiometricSet,
					OwnerID: account.ID,
					Details: map[string]bool{"enabled": enabled},
				})
				_, err = fmt.Fprintf(deps.out, "biometric unlock %sd\n", use)
				return err
			})
		},
	}
}

func newBiometricStatusCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether biometric unlock is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}
				enabled, err := rt.auth.BiometricEnabled(ctx, account.ID)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]bool{"biometric_enabled": enabled})
				}
				state := "disabled"
				if enabled {
					state = "enabled"
				}
				_, err = fmt.Fprintf(deps.out, "biometric unlock is %s\n", state)
				return err
			})
		},
	}
}
