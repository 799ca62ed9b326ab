// Package auth decides who may see which dashboard route and restores the
// persisted session on start.
package auth

import (
	"strings"

	"fleetdash/internal/models"
	"fleetdash/internal/store"
)

type RouteKind int

const (
	Unknown RouteKind = iota
	// Public routes are for signed-out visitors only.
	Public
	Protected
	AdminOnly
)

type Route struct {
	Pattern string
	Kind    RouteKind
}

// Routes is the dashboard route table. {x} matches one path segment.
var Routes = []Route{
	{"/login", Public},
	{"/register", Public},
	{"/forgot-password", Public},
	{"/reset-password/{token}", Public},

	{"/", Protected},
	{"/devices", Protected},
	{"/devices/health", Protected},
	{"/devices/{id}", Protected},
	{"/videos", Protected},
	{"/brands", Protected},
	{"/settings", Protected},

	{"/users", AdminOnly},
}

// Principal is everything the guard looks at.
type Principal struct {
	Authenticated bool
	Role          models.Role
}

// PrincipalOf reads the auth state; when the stored user carries no role
// the token's role claim is used.
func PrincipalOf(st store.AuthState) Principal {
	p := Principal{Authenticated: st.IsAuthenticated && st.Token != ""}
	if st.User != nil {
		p.Role = st.User.Role
	}
	if p.Authenticated && p.Role == "" {
		if c, err := PeekClaims(st.Token); err == nil {
			p.Role = c.Role
		}
	}
	return p
}

type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect " + d.Redirect
}

// Access decides what happens when p opens path.
func Access(p Principal, path string) Decision {
	switch KindOf(path) {
	case Public:
		if p.Authenticated {
			return redirect("/")
		}
		return allow()
	case Protected:
		if !p.Authenticated {
			return redirect("/login")
		}
		return allow()
	case AdminOnly:
		if !p.Authenticated {
			return redirect("/login")
		}
		if p.Role != models.RoleAdmin {
			return redirect("/")
		}
		return allow()
	default:
		return redirect("/")
	}
}

func KindOf(path string) RouteKind {
	path = normalize(path)
	for _, r := range Routes {
		if match(r.Pattern, path) {
			return r.Kind
		}
	}
	return Unknown
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func match(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], "{") && strings.HasSuffix(ps[i], "}") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
