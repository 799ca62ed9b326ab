package pages

import (
	"context"
	"sync"
	"time"

	"fleetdash/internal/api"
	"fleetdash/internal/models"
	"fleetdash/internal/query"
)

type UsersState = query.State[models.UserListParams, *models.UserPage]

type UsersOptions struct {
	PageSize       int
	SearchDebounce time.Duration
	RoleDebounce   time.Duration
	// Schedule replaces the real timers, mainly in tests.
	Schedule query.Scheduler
}

// Users is the admin user list. It outlives a single request: the list
// query keeps its params, cancels stale fetches and retries after 429.
type Users struct {
	*Env
	q *query.Query[models.UserListParams, *models.UserPage]

	mu      sync.Mutex
	waiters map[chan UsersState]struct{}
}

func NewUsers(env *Env, opts UsersOptions) *Users {
	u := &Users{Env: env, waiters: map[chan UsersState]struct{}{}}
	initial := models.DefaultUserListParams()
	if opts.PageSize > 0 {
		initial.Limit = opts.PageSize
	}
	u.q = query.New(initial, u.fetch, query.Options[models.UserListParams, *models.UserPage]{
		Name:     "users",
		Schedule: opts.Schedule,
		OnChange: u.changed,
		Debounce: func(prev, next models.UserListParams) time.Duration {
			switch {
			case prev.Search != next.Search:
				return opts.SearchDebounce
			case prev.Role != next.Role:
				return opts.RoleDebounce
			}
			return 0
		},
	})
	return u
}

func (u *Users) fetch(ctx context.Context, p models.UserListParams) (*models.UserPage, error) {
	return u.Auth.ListUsers(ctx, p)
}

func (u *Users) changed(st UsersState) {
	switch st.Phase {
	case query.RateLimited:
		u.Notify.Error("Too many requests. Please wait a moment.")
	case query.Failed:
		if api.IsUnauthorized(st.Err) {
			u.Notify.Error("Session expired. Please login again.")
		} else {
			u.Notify.Error("Failed to fetch users")
		}
	}
	u.mu.Lock()
	for ch := range u.waiters {
		select {
		case ch <- st:
		default:
		}
	}
	u.mu.Unlock()
}

func (u *Users) State() UsersState { return u.q.State() }

func (u *Users) Params() models.UserListParams { return u.q.State().Params }

// Set replaces the list params; searches and role filters are debounced.
func (u *Users) Set(p models.UserListParams) { u.q.SetParams(p) }

// Search filters by term and goes back to page one.
func (u *Users) Search(term string) {
	p := u.Params()
	p.Search, p.Page = term, 1
	u.Set(p)
}

func (u *Users) FilterRole(r models.Role) {
	p := u.Params()
	p.Role, p.Page = r, 1
	u.Set(p)
}

func (u *Users) Page(n int) {
	p := u.Params()
	if n < 1 {
		n = 1
	}
	p.Page = n
	u.Set(p)
}

func (u *Users) Refresh() bool { return u.q.Refresh() }

func (u *Users) Close() { u.q.Close() }

// Fetch sets p and waits until a fetch for it succeeds or fails. Rate-limit
// states are waited through since the query retries on its own.
func (u *Users) Fetch(ctx context.Context, p models.UserListParams) (UsersState, error) {
	ch := make(chan UsersState, 32)
	u.mu.Lock()
	u.waiters[ch] = struct{}{}
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		delete(u.waiters, ch)
		u.mu.Unlock()
	}()

	u.Set(p)
	started := false
	for {
		select {
		case <-ctx.Done():
			return u.State(), ctx.Err()
		case st := <-ch:
			if st.Phase == query.Fetching {
				started = true
				continue
			}
			if !started || st.Params != p {
				continue
			}
			switch st.Phase {
			case query.Success:
				return st, nil
			case query.Failed:
				return st, st.Err
			}
		}
	}
}

// UserAdmin runs the row actions of the user list. Actions report to their
// own Env and refresh the shared list.
type UserAdmin struct {
	*Env
	list *Users
}

// As binds the row actions to env, typically one per request.
func (u *Users) As(env *Env) *UserAdmin { return &UserAdmin{Env: env, list: u} }

func (a *UserAdmin) Stats(ctx context.Context) (*models.UserStats, error) {
	st, err := a.Auth.UserStats(ctx)
	if err != nil {
		return nil, a.fail(err, "Failed to fetch user stats")
	}
	return st, nil
}

func (a *UserAdmin) Activate(ctx context.Context, id string) error {
	if _, err := a.Auth.ActivateUser(ctx, id); err != nil {
		return a.fail(err, "Failed to activate user")
	}
	a.Notify.Success("User activated successfully")
	a.list.Refresh()
	return nil
}

func (a *UserAdmin) Delete(ctx context.Context, id string) error {
	if !a.confirm("Are you sure you want to delete this user? This action cannot be undone.") {
		return ErrDeclined
	}
	if _, err := a.Auth.DeleteUser(ctx, id); err != nil {
		return a.fail(err, "Failed to delete user")
	}
	a.Notify.Success("User deleted successfully")
	a.list.Refresh()
	return nil
}
