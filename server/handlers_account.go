package server

import (
	"net/http"
	"strconv"
	"time"

	"fleetdash/internal/auth"
	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"

	"github.com/gorilla/mux"
)

// ── session ──

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	Role          models.Role  `json:"role,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

func (a *App) handleSession(w http.ResponseWriter, _ *http.Request) {
	st := a.env.AuthStore.State()
	p := auth.PrincipalOf(st)
	v := sessionView{Authenticated: p.Authenticated, User: st.User, Role: p.Role}
	if c, err := auth.PeekClaims(st.Token); err == nil && c.ExpiresAt != nil {
		t := c.ExpiresAt.Time
		v.ExpiresAt = &t
	}
	writeJSON(w, http.StatusOK, envelope{Data: v})
}

// handleAccess tells the UI what the guard would do for a page path.
func (a *App) handleAccess(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	d := auth.Access(auth.PrincipalOf(a.env.AuthStore.State()), path)
	writeJSON(w, http.StatusOK, envelope{Data: map[string]any{
		"path":     path,
		"allow":    d.Allow,
		"redirect": d.Redirect,
	}})
}

func (a *App) login(r *http.Request, env *pages.Env) (any, error) {
	var f forms.LoginForm
	var b struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	f.Email, f.Password = b.Email, b.Password
	return pages.NewSession(env).Login(r.Context(), f)
}

func (a *App) logout(_ *http.Request, env *pages.Env) (any, error) {
	return nil, pages.NewSession(env).Logout()
}

func (a *App) register(r *http.Request, env *pages.Env) (any, error) {
	get, cleanup, err := multipartFields(r)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	f := forms.RegisterForm{
		Username:        get("username"),
		Email:           get("email"),
		Mobile:          get("mobile"),
		Password:        get("password"),
		ConfirmPassword: get("confirmPassword"),
		Role:            models.Role(get("role")),
	}
	img, closeImg, err := attachment(r, "image")
	defer closeImg()
	if err != nil {
		return nil, err
	}
	f.Image = img
	return pages.NewSession(env).Register(r.Context(), f)
}

func (a *App) forgotPassword(r *http.Request, env *pages.Env) (any, error) {
	var b struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	return nil, pages.NewSession(env).ForgotPassword(r.Context(), forms.ForgotPasswordForm{Email: b.Email})
}

func (a *App) resetPassword(r *http.Request, env *pages.Env) (any, error) {
	var b struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	f := forms.ResetPasswordForm{Password: b.Password, ConfirmPassword: b.ConfirmPassword}
	return nil, pages.NewSession(env).ResetPassword(r.Context(), mux.Vars(r)["token"], f)
}

// ── users ──

func userParams(r *http.Request, base models.UserListParams) (models.UserListParams, error) {
	q := r.URL.Query()
	p := base
	for key, dst := range map[string]*int{"page": &p.Page, "limit": &p.Limit} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, badRequestf("invalid %s %q", key, s)
		}
		*dst = n
	}
	if q.Has("search") {
		p.Search = q.Get("search")
	}
	if q.Has("role") {
		p.Role = models.Role(q.Get("role"))
	}
	if s := q.Get("sortBy"); s != "" {
		p.SortBy = s
	}
	if s := q.Get("sortOrder"); s != "" {
		p.SortOrder = s
	}
	return p, nil
}

func (a *App) listUsers(r *http.Request, _ *pages.Env) (any, error) {
	p, err := userParams(r, a.users.Params())
	if err != nil {
		return nil, err
	}
	st, err := a.users.Fetch(r.Context(), p)
	if err != nil {
		return nil, err
	}
	return st.Result, nil
}

func (a *App) userStats(r *http.Request, env *pages.Env) (any, error) {
	return a.users.As(env).Stats(r.Context())
}

func (a *App) activateUser(r *http.Request, env *pages.Env) (any, error) {
	return nil, a.users.As(env).Activate(r.Context(), mux.Vars(r)["id"])
}

func (a *App) deleteUser(r *http.Request, env *pages.Env) (any, error) {
	return nil, a.users.As(env).Delete(r.Context(), mux.Vars(r)["id"])
}

// ── settings ──

func (a *App) updateProfile(r *http.Request, env *pages.Env) (any, error) {
	get, cleanup, err := multipartFields(r)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	f := forms.ProfileForm{
		Username:  get("username"),
		Email:     get("email"),
		Mobile:    get("mobile"),
		FirstName: get("firstName"),
		LastName:  get("lastName"),
	}
	img, closeImg, err := attachment(r, "image")
	defer closeImg()
	if err != nil {
		return nil, err
	}
	f.Image = img
	return pages.NewSettings(env).UpdateProfile(r.Context(), f)
}

func (a *App) changePassword(r *http.Request, env *pages.Env) (any, error) {
	var b struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	f := forms.ChangePasswordForm{CurrentPassword: b.CurrentPassword, NewPassword: b.NewPassword}
	return nil, pages.NewSettings(env).ChangePassword(r.Context(), f)
}

func (a *App) deactivate(r *http.Request, env *pages.Env) (any, error) {
	return nil, pages.NewSettings(env).Deactivate(r.Context())
}
