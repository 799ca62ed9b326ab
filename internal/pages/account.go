package pages

import (
	"context"
	"fmt"
	"strings"

	"fleetdash/internal/api"
	"fleetdash/internal/auth"
	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/store"
)

// ── Session ──

// Session covers sign-in, sign-out and the public password pages.
type Session struct{ *Env }

func NewSession(env *Env) *Session { return &Session{env} }

// Bootstrap restores and verifies the persisted session.
func (s *Session) Bootstrap(ctx context.Context) store.AuthState {
	st, err := auth.Bootstrap(ctx, s.AuthStore, s.Auth)
	if err != nil {
		s.log().WithError(err).Info("starting signed out")
	}
	return st
}

func (s *Session) Login(ctx context.Context, f forms.LoginForm) (*models.User, error) {
	var user *models.User
	err := f.Submit(ctx, func(ctx context.Context, cred models.Credentials) error {
		res, err := s.Auth.Login(ctx, cred)
		if err != nil {
			return err
		}
		if err := s.AuthStore.Login(res.User, res.Token); err != nil {
			return err
		}
		user = &res.User
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Login failed")
	}
	s.Notify.Success(fmt.Sprintf("Welcome back, %s!", user.Username))
	return user, nil
}

// Register creates the account and signs in when the backend hands back a
// token.
func (s *Session) Register(ctx context.Context, f forms.RegisterForm) (*models.User, error) {
	var user *models.User
	err := f.Submit(ctx, func(ctx context.Context, m *api.Multipart) error {
		res, err := s.Auth.Register(ctx, m)
		if err != nil {
			return err
		}
		user = &res.User
		if res.Token != "" {
			return s.AuthStore.Login(res.User, res.Token)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Registration failed")
	}
	s.Notify.Success("Account created successfully")
	return user, nil
}

func (s *Session) Logout() error {
	if err := s.AuthStore.Logout(); err != nil {
		return s.fail(err, "Failed to sign out")
	}
	s.Notify.Info("Signed out")
	return nil
}

func (s *Session) ForgotPassword(ctx context.Context, f forms.ForgotPasswordForm) error {
	err := f.Submit(ctx, func(ctx context.Context, email string) error {
		_, err := s.Auth.ForgotPassword(ctx, email)
		return err
	})
	if err != nil {
		return s.fail(err, "Failed to send reset email")
	}
	s.Notify.Success("Password reset email sent successfully!")
	return nil
}

func (s *Session) ResetPassword(ctx context.Context, token string, f forms.ResetPasswordForm) error {
	if strings.TrimSpace(token) == "" {
		return s.failStatic(api.Local("missing reset token"), "Invalid reset token")
	}
	err := f.Submit(ctx, func(ctx context.Context, in models.PasswordReset) error {
		_, err := s.Auth.ResetPassword(ctx, token, in)
		return err
	})
	if err != nil {
		return s.fail(err, "Failed to reset password")
	}
	s.Notify.Success("Password reset successfully!")
	return nil
}

// ── Settings ──

type Settings struct{ *Env }

func NewSettings(env *Env) *Settings { return &Settings{env} }

func (s *Settings) user() (models.User, error) {
	u, ok := s.AuthStore.User()
	if !ok || u.ID == "" {
		return models.User{}, api.Local("not signed in")
	}
	return u, nil
}

func (s *Settings) UpdateProfile(ctx context.Context, f forms.ProfileForm) (*models.User, error) {
	me, err := s.user()
	if err != nil {
		return nil, s.fail(err, "Failed to update profile")
	}
	var updated *models.User
	err = f.Submit(ctx, func(ctx context.Context, m *api.Multipart) error {
		u, err := s.Auth.UpdateProfile(ctx, me.ID, m)
		if err != nil {
			return err
		}
		updated = u
		return s.AuthStore.UpdateUser(models.UserPatchFrom(*u))
	})
	if err != nil {
		return nil, s.fail(err, "Failed to update profile")
	}
	s.Notify.Success("Profile updated successfully")
	return updated, nil
}

func (s *Settings) ChangePassword(ctx context.Context, f forms.ChangePasswordForm) error {
	err := f.Submit(ctx, func(ctx context.Context, in models.PasswordChange) error {
		_, err := s.Auth.ChangePassword(ctx, in)
		return err
	})
	if err != nil {
		return s.fail(err, "Failed to change password")
	}
	s.Notify.Success("Password changed successfully")
	return nil
}

// Deactivate disables the account and signs out.
func (s *Settings) Deactivate(ctx context.Context) error {
	if !s.confirm("Are you sure you want to deactivate your account?") {
		return ErrDeclined
	}
	if _, err := s.Auth.Deactivate(ctx); err != nil {
		return s.fail(err, "Failed to deactivate account")
	}
	s.Notify.Success("Account deactivated successfully")
	if err := s.AuthStore.Logout(); err != nil {
		s.log().WithError(err).Warn("sign out after deactivation")
	}
	return nil
}
