package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"fleetdash/internal/api"
	"fleetdash/internal/models"

	"github.com/pkg/errors"
)

type AuthService struct {
	c *api.Client
}

func NewAuthService(c *api.Client) *AuthService { return &AuthService{c: c} }

func (s *AuthService) Login(ctx context.Context, cred models.Credentials) (*models.LoginResult, error) {
	var out models.LoginResult
	var raw json.RawMessage
	if err := s.c.Post(ctx, "/auth/login", cred, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Login failed"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, wrapDecode("/auth/login", err)
	}
	if out.Token == "" {
		return nil, api.Local("Login failed")
	}
	return &out, nil
}

// Register posts a multipart form (fields plus optional image).
func (s *AuthService) Register(ctx context.Context, form *api.Multipart) (*models.LoginResult, error) {
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPost, "/auth/register", form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Registration failed"); err != nil {
		return nil, err
	}
	var out models.LoginResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, wrapDecode("/auth/register", err)
	}
	return &out, nil
}

// Profile verifies the current token and returns its user.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/auth/profile", nil, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Profile verification failed"); err != nil {
		return nil, err
	}
	return s.user("/auth/profile", raw)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, form *api.Multipart) (*models.User, error) {
	path := "/auth/edit/" + seg(userID)
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPut, path, form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to update profile"); err != nil {
		return nil, err
	}
	return s.user(path, raw)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (Ack, error) {
	var a Ack
	err := s.c.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &a)
	if err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to send reset email")
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, in models.PasswordReset) (Ack, error) {
	var a Ack
	if err := s.c.Post(ctx, "/auth/reset-password/"+seg(token), in, &a); err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to reset password")
}

func (s *AuthService) ChangePassword(ctx context.Context, in models.PasswordChange) (Ack, error) {
	var a Ack
	if err := s.c.Put(ctx, "/auth/change-password", in, &a); err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to change password")
}

func (s *AuthService) Deactivate(ctx context.Context) (Ack, error) {
	var a Ack
	if err := s.c.Put(ctx, "/auth/deactivate", nil, &a); err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to deactivate account")
}

// ── Admin ──

func (s *AuthService) ListUsers(ctx context.Context, p models.UserListParams) (*models.UserPage, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Role != "" {
		q.Set("role", string(p.Role))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	var out models.UserPage
	if err := s.c.Get(ctx, "/auth/users", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) UserStats(ctx context.Context) (*models.UserStats, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/auth/stats", nil, &raw); err != nil {
		return nil, err
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, wrapDecode("/auth/stats", err)
	}
	body := raw
	for _, k := range []string{"stats", "data"} {
		if v, ok := env[k]; ok && !isNull(v) {
			body = v
			break
		}
	}
	var st models.UserStats
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, wrapDecode("/auth/stats", err)
	}
	return &st, nil
}

func (s *AuthService) ActivateUser(ctx context.Context, userID string) (Ack, error) {
	var a Ack
	if err := s.c.Put(ctx, "/auth/activate/"+seg(userID), nil, &a); err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to activate user")
}

func (s *AuthService) DeleteUser(ctx context.Context, userID string) (Ack, error) {
	var a Ack
	if err := s.c.Delete(ctx, "/auth/delete/"+seg(userID), nil, &a); err != nil {
		return Ack{}, err
	}
	return a, a.err("Failed to delete user")
}

func (s *AuthService) user(path string, raw json.RawMessage) (*models.User, error) {
	var u models.User
	found, err := decodeOne(path, raw, &u, "user", "data")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, wrapDecode(path, errMissingUser)
	}
	return &u, nil
}

var errMissingUser = errors.New("response has no user")
