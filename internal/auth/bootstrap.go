package auth

import (
	"context"

	"fleetdash/internal/logs"
	"fleetdash/internal/models"
	"fleetdash/internal/store"
)

type ProfileFetcher interface {
	Profile(ctx context.Context) (*models.User, error)
}

// Bootstrap restores the persisted session and verifies its token against
// the profile endpoint. Any verification failure signs out and removes the
// persisted blob; the error is returned for logging only.
func Bootstrap(ctx context.Context, st *store.AuthStore, profile ProfileFetcher) (store.AuthState, error) {
	log := logs.Component("auth")

	restored, err := st.Restore()
	if err != nil {
		log.WithError(err).Warn("reading persisted session failed")
		_ = st.Logout()
		return store.AuthState{}, err
	}
	if restored.Token == "" {
		return store.AuthState{}, nil
	}

	u, err := profile.Profile(ctx)
	if err != nil {
		log.WithError(err).Info("persisted session rejected, signing out")
		if lerr := st.Logout(); lerr != nil {
			log.WithError(lerr).Warn("removing persisted session failed")
		}
		return store.AuthState{}, err
	}

	user := models.User{}
	if restored.User != nil {
		user = *restored.User
	}
	models.UserPatchFrom(*u).Apply(&user)
	if user.ID == "" {
		user.ID = u.ID
	}
	if err := st.Login(user, restored.Token); err != nil {
		return st.State(), err
	}
	return st.State(), nil
}
