package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fleetdash/internal/auth"
	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"
)

func sessionCommands(o *cliOptions) []*cobra.Command {
	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("FLEETDASH_PASSWORD")
			}
			_, err = pages.NewSession(s.env).Login(c.Context(), forms.LoginForm{Email: email, Password: password})
			return err
		},
	}
	login.Flags().StringVar(&email, "email", "", "Account email")
	login.Flags().StringVar(&password, "password", "", "Password (or FLEETDASH_PASSWORD)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return pages.NewSession(s.env).Logout()
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context(), o.cfg.API.Timeout)
			defer cancel()
			st := pages.NewSession(s.env).Bootstrap(ctx)
			p := auth.PrincipalOf(st)
			var expires string
			if cl, err := auth.PeekClaims(st.Token); err == nil {
				if left, ok := cl.ExpiresIn(time.Now()); ok {
					expires = left.Round(time.Minute).String()
				}
			}
			return s.emit(st.User, func(w *tabwriter.Writer) {
				if !p.Authenticated {
					fmt.Fprintln(w, "not signed in")
					return
				}
				if st.User != nil {
					fmt.Fprintf(w, "user\t%s\n", st.User.Username)
					fmt.Fprintf(w, "email\t%s\n", st.User.Email)
				}
				fmt.Fprintf(w, "role\t%s\n", p.Role)
				if expires != "" {
					fmt.Fprintf(w, "token expires in\t%s\n", expires)
				}
			})
		},
	}

	var forgotEmail string
	forgot := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return pages.NewSession(s.env).ForgotPassword(c.Context(), forms.ForgotPasswordForm{Email: forgotEmail})
		},
	}
	forgot.Flags().StringVar(&forgotEmail, "email", "", "Account email")

	var newPassword string
	reset := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			if newPassword == "" {
				newPassword = os.Getenv("FLEETDASH_PASSWORD")
			}
			f := forms.ResetPasswordForm{Password: newPassword, ConfirmPassword: newPassword}
			return pages.NewSession(s.env).ResetPassword(c.Context(), args[0], f)
		},
	}
	reset.Flags().StringVar(&newPassword, "password", "", "New password (or FLEETDASH_PASSWORD)")

	return []*cobra.Command{login, logout, whoami, forgot, reset}
}

func usersCommand(o *cliOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage dashboard accounts (admin)"}

	var page int
	var search, role string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			u := pages.NewUsers(s.env, pages.UsersOptions{PageSize: o.cfg.Users.PageSize})
			defer u.Close()
			p := u.Params()
			p.Page, p.Search, p.Role = page, search, models.Role(role)
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
			defer cancel()
			st, err := u.Fetch(ctx, p)
			if err != nil {
				return err
			}
			res := st.Result
			return s.emit(res, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS")
				for _, x := range res.Users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", x.ID, x.Username, x.Email, x.Role, x.Status)
				}
				pg := res.Pagination
				fmt.Fprintf(w, "\npage %d of %d, %d users\n", pg.Page, pg.TotalPages, pg.Total)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().StringVar(&search, "search", "", "Search term")
	list.Flags().StringVar(&role, "role", "", "Filter by role (admin, staff)")

	// admin binds row actions to a list that is closed when the command
	// returns, so the follow-up refresh is dropped.
	admin := func(s *session) *pages.UserAdmin {
		u := pages.NewUsers(s.env, pages.UsersOptions{})
		cobra.OnFinalize(u.Close)
		return u.As(s.env)
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show user counts",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			a := admin(s)
			st, err := a.Stats(c.Context())
			if err != nil {
				return err
			}
			return s.emit(st, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "total\t%d\nactive\t%d\ninactive\t%d\nadmins\t%d\nstaff\t%d\n",
					st.Total, st.Active, st.Inactive, st.Admins, st.Staff)
			})
		},
	}

	activate := &cobra.Command{
		Use:   "activate <user-id>",
		Short: "Activate a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return admin(s).Activate(c.Context(), args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			return quiet(admin(s).Delete(c.Context(), args[0]))
		},
	}

	cmd.AddCommand(list, stats, activate, del)
	return cmd
}
