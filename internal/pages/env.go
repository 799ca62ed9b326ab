// Package pages holds the dashboard's page controllers. A controller loads
// what its page shows, runs the page's actions through the services, patches
// the stores after the server confirms, and reports the outcome to a
// Notifier.
package pages

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"fleetdash/internal/api"
	"fleetdash/internal/forms"
	"fleetdash/internal/logs"
	"fleetdash/internal/services"
	"fleetdash/internal/store"
)

// ErrDeclined is returned when the user does not confirm a destructive action.
var ErrDeclined = errors.New("action not confirmed")

// ErrNoSelection is returned by bulk actions on an empty selection.
var ErrNoSelection = errors.New("no devices selected")

// Env is everything a controller needs. Copies are cheap; use With to bind
// a per-request notifier.
type Env struct {
	Devices *services.DeviceService
	Videos  *services.VideoService
	Auth    *services.AuthService

	DeviceStore *store.DeviceStore
	VideoStore  *store.VideoStore
	AuthStore   *store.AuthStore

	Notify  Notifier
	Confirm Confirmer
	Log     *logrus.Entry
	Now     func() time.Time
}

// NewEnv wires services over one client. Notifier and Confirmer default to
// logging and auto-confirm.
func NewEnv(c *api.Client, ds *store.DeviceStore, vs *store.VideoStore, as *store.AuthStore) *Env {
	return &Env{
		Devices:     services.NewDeviceService(c),
		Videos:      services.NewVideoService(c),
		Auth:        services.NewAuthService(c),
		DeviceStore: ds,
		VideoStore:  vs,
		AuthStore:   as,
		Notify:      LogNotifier{},
		Confirm:     AlwaysConfirm{},
		Log:         logs.Component("pages"),
		Now:         time.Now,
	}
}

// With returns a copy reporting to n and asking c.
func (e *Env) With(n Notifier, c Confirmer) *Env {
	cp := *e
	if n != nil {
		cp.Notify = n
	}
	if c != nil {
		cp.Confirm = c
	}
	return &cp
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) log() *logrus.Entry {
	if e.Log == nil {
		return logs.Component("pages")
	}
	return e.Log
}

// fail reports err and hands it back. Validation errors stay inline and are
// not notified.
func (e *Env) fail(err error, fallback string) error {
	var ferr forms.Errors
	if errors.As(err, &ferr) {
		return err
	}
	e.log().WithError(err).Warn(fallback)
	e.Notify.Error(api.MessageOr(err, fallback))
	return err
}

// failStatic reports a fixed message regardless of what the server said.
func (e *Env) failStatic(err error, msg string) error {
	var ferr forms.Errors
	if errors.As(err, &ferr) {
		return err
	}
	e.log().WithError(err).Warn(msg)
	e.Notify.Error(msg)
	return err
}

func (e *Env) confirm(prompt string) bool {
	if e.Confirm == nil {
		return true
	}
	return e.Confirm.Confirm(prompt)
}

// detach keeps values but drops cancellation, for follow-up refreshes.
func detach(ctx context.Context) context.Context { return context.WithoutCancel(ctx) }
