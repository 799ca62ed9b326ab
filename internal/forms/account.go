package forms

import (
	"context"
	"strings"

	"fleetdash/internal/api"
	"fleetdash/internal/models"
)

var (
	usernameRule = Rule{Field: "username", Required: "Username is required", MinLen: 3, MinLenMsg: "Username must be at least 3 characters"}
	mobileRule   = Rule{Field: "mobile", Required: "Mobile number is required", Pattern: reMobile, PatternMsg: "Invalid mobile number"}
)

func confirmRule(field, against string) Rule {
	return Rule{Field: field, Required: "Please confirm your password", Check: func(get Getter) string {
		if get(field) != get(against) {
			return "Passwords do not match"
		}
		return ""
	}}
}

// ── Login ──

type LoginForm struct {
	Email    string
	Password string
}

var LoginRules = []Rule{emailRule(true), passwordRule("password", "Password is required")}

func (f LoginForm) get(field string) string {
	return fieldMap(map[string]string{"email": f.Email, "password": f.Password})(field)
}

func (f LoginForm) Validate() Errors { return validate(LoginRules, f.get) }

func (f LoginForm) Submit(ctx context.Context, onSubmit func(context.Context, models.Credentials) error) error {
	return submit(ctx, f.Validate(), func() (models.Credentials, error) {
		return models.Credentials{Email: strings.TrimSpace(f.Email), Password: f.Password}, nil
	}, onSubmit)
}

// ── Register ──

type RegisterForm struct {
	Username        string
	Email           string
	Mobile          string
	Password        string
	ConfirmPassword string
	Role            models.Role
	Image           *Attachment
}

var RegisterRules = []Rule{
	usernameRule,
	emailRule(true),
	mobileRule,
	passwordRule("password", "Password is required"),
	confirmRule("confirmPassword", "password"),
}

func (f RegisterForm) get(field string) string {
	return fieldMap(map[string]string{
		"username":        f.Username,
		"email":           f.Email,
		"mobile":          f.Mobile,
		"password":        f.Password,
		"confirmPassword": f.ConfirmPassword,
	})(field)
}

func (f RegisterForm) Validate() Errors { return validate(RegisterRules, f.get) }

func (f RegisterForm) Multipart() *api.Multipart {
	m := api.NewMultipart().
		Field("username", strings.TrimSpace(f.Username)).
		Field("email", strings.TrimSpace(f.Email)).
		Field("mobile", strings.TrimSpace(f.Mobile)).
		Field("password", f.Password).
		Field("role", string(f.Role))
	if f.Image.present() {
		m.File("image", f.Image.Name, f.Image.R)
	}
	return m
}

func (f RegisterForm) Submit(ctx context.Context, onSubmit func(context.Context, *api.Multipart) error) error {
	return submit(ctx, f.Validate(), func() (*api.Multipart, error) { return f.Multipart(), nil }, onSubmit)
}

// ── Profile ──

type ProfileForm struct {
	Username  string
	Email     string
	Mobile    string
	FirstName string
	LastName  string
	Image     *Attachment
}

var ProfileRules = []Rule{usernameRule, emailRule(true), mobileRule}

func ProfileFormFrom(u models.User) ProfileForm {
	return ProfileForm{Username: u.Username, Email: u.Email, Mobile: u.Mobile, FirstName: u.FirstName, LastName: u.LastName}
}

func (f ProfileForm) get(field string) string {
	return fieldMap(map[string]string{"username": f.Username, "email": f.Email, "mobile": f.Mobile})(field)
}

func (f ProfileForm) Validate() Errors { return validate(ProfileRules, f.get) }

func (f ProfileForm) Multipart() *api.Multipart {
	m := api.NewMultipart().
		Field("username", strings.TrimSpace(f.Username)).
		Field("email", strings.TrimSpace(f.Email)).
		Field("mobile", strings.TrimSpace(f.Mobile)).
		Field("firstName", strings.TrimSpace(f.FirstName)).
		Field("lastName", strings.TrimSpace(f.LastName))
	if f.Image.present() {
		m.File("image", f.Image.Name, f.Image.R)
	}
	return m
}

func (f ProfileForm) Submit(ctx context.Context, onSubmit func(context.Context, *api.Multipart) error) error {
	return submit(ctx, f.Validate(), func() (*api.Multipart, error) { return f.Multipart(), nil }, onSubmit)
}

// ── Passwords ──

type ChangePasswordForm struct {
	CurrentPassword string
	NewPassword     string
}

var ChangePasswordRules = []Rule{
	{Field: "currentPassword", Required: "Current password is required"},
	{Field: "newPassword", Required: "New password is required", MinLen: 6, MinLenMsg: "Password must be at least 6 characters",
		Check: func(get Getter) string {
			if get("newPassword") == get("currentPassword") {
				return "New password must be different from current password"
			}
			return ""
		}},
}

func (f ChangePasswordForm) get(field string) string {
	return fieldMap(map[string]string{"currentPassword": f.CurrentPassword, "newPassword": f.NewPassword})(field)
}

func (f ChangePasswordForm) Validate() Errors { return validate(ChangePasswordRules, f.get) }

func (f ChangePasswordForm) Submit(ctx context.Context, onSubmit func(context.Context, models.PasswordChange) error) error {
	return submit(ctx, f.Validate(), func() (models.PasswordChange, error) {
		return models.PasswordChange{CurrentPassword: f.CurrentPassword, NewPassword: f.NewPassword}, nil
	}, onSubmit)
}

type ResetPasswordForm struct {
	Password        string
	ConfirmPassword string
}

var ResetPasswordRules = []Rule{
	passwordRule("password", "Password is required"),
	confirmRule("confirmPassword", "password"),
}

func (f ResetPasswordForm) get(field string) string {
	return fieldMap(map[string]string{"password": f.Password, "confirmPassword": f.ConfirmPassword})(field)
}

func (f ResetPasswordForm) Validate() Errors { return validate(ResetPasswordRules, f.get) }

func (f ResetPasswordForm) Submit(ctx context.Context, onSubmit func(context.Context, models.PasswordReset) error) error {
	return submit(ctx, f.Validate(), func() (models.PasswordReset, error) {
		return models.PasswordReset{Password: f.Password, ConfirmPassword: f.ConfirmPassword}, nil
	}, onSubmit)
}

type ForgotPasswordForm struct {
	Email string
}

var ForgotPasswordRules = []Rule{emailRule(true)}

func (f ForgotPasswordForm) Validate() Errors {
	return validate(ForgotPasswordRules, fieldMap(map[string]string{"email": f.Email}))
}

func (f ForgotPasswordForm) Submit(ctx context.Context, onSubmit func(context.Context, string) error) error {
	return submit(ctx, f.Validate(), func() (string, error) { return strings.TrimSpace(f.Email), nil }, onSubmit)
}
