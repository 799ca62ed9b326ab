package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fleetdash/internal/api"
	"fleetdash/internal/forms"
	"fleetdash/internal/logs"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"

	"github.com/pkg/errors"
)

const maxFlashes = 20

type envelope struct {
	Data any `json:"data"`
}

// badRequest is a client body the handlers could not read.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// pageFunc runs one controller action against a request-scoped Env.
type pageFunc func(r *http.Request, env *pages.Env) (any, error)

// page binds env to a fresh Recorder, runs fn, queues the recorded notices
// as session flashes and writes either {data} or a problem.
func (a *App) page(fn pageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &pages.Recorder{}
		data, err := fn(r, a.env.With(rec, pages.AlwaysConfirm{}))
		last := rec.Last()
		a.flash(w, r, rec.Drain())
		if err != nil {
			writeError(w, err, last)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: data})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, last pages.Notice) {
	detail := err.Error()
	if last.Level == pages.LevelError && last.Message != "" {
		detail = last.Message
	}

	var ferr forms.Errors
	var breq *badRequest
	var local *api.LocalError
	switch {
	case errors.As(err, &ferr):
		models.WriteProblem(w, http.StatusUnprocessableEntity, "validation failed", ferr.Error(), ferr)
	case errors.As(err, &breq):
		models.WriteProblem(w, http.StatusBadRequest, "bad request", breq.msg, nil)
	case errors.Is(err, pages.ErrNoSelection):
		models.WriteProblem(w, http.StatusBadRequest, "no devices selected", detail, nil)
	case errors.Is(err, pages.ErrDeclined):
		models.WriteProblem(w, http.StatusConflict, "not confirmed", detail, nil)
	case errors.Is(err, context.DeadlineExceeded):
		models.WriteProblem(w, http.StatusGatewayTimeout, "fleet API timeout", detail, nil)
	case errors.As(err, &local):
		models.WriteProblem(w, http.StatusBadGateway, "fleet API refused", detail, nil)
	default:
		status := api.StatusOf(err)
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict,
			http.StatusUnprocessableEntity, http.StatusTooManyRequests, http.StatusBadRequest:
		default:
			status = http.StatusBadGateway
		}
		models.WriteProblem(w, status, http.StatusText(status), detail, nil)
	}
}

// ── flashes ──

const flashKey = "notices"

func (a *App) flash(w http.ResponseWriter, r *http.Request, notices []pages.Notice) {
	if len(notices) == 0 {
		return
	}
	log := logs.Component("server")
	sess, err := a.sessions.Get(r, a.cfg.Session.Name)
	if err != nil {
		// tampered or rotated secret: start over
		log.WithError(err).Debug("session decode")
	}
	queued := sess.Flashes(flashKey)
	for _, n := range notices {
		b, _ := json.Marshal(n)
		queued = append(queued, string(b))
	}
	if len(queued) > maxFlashes {
		queued = queued[len(queued)-maxFlashes:]
	}
	for _, q := range queued {
		sess.AddFlash(q, flashKey)
	}
	if err := sess.Save(r, w); err != nil {
		log.WithError(err).Warn("session save")
	}
}

// drainFlashes returns and clears the queued notices of this browser
// session.
func (a *App) drainFlashes(w http.ResponseWriter, r *http.Request) []pages.Notice {
	sess, err := a.sessions.Get(r, a.cfg.Session.Name)
	if err != nil {
		logs.Component("server").WithError(err).Debug("session decode")
	}
	raw := sess.Flashes(flashKey)
	out := make([]pages.Notice, 0, len(raw))
	for _, f := range raw {
		s, ok := f.(string)
		if !ok {
			continue
		}
		var n pages.Notice
		if json.Unmarshal([]byte(s), &n) == nil {
			out = append(out, n)
		}
	}
	if len(raw) > 0 {
		if err := sess.Save(r, w); err != nil {
			logs.Component("server").WithError(err).Warn("session save")
		}
	}
	return out
}

func (a *App) handleNotices(w http.ResponseWriter, r *http.Request) {
	out := a.drainFlashes(w, r)
	out = append(out, a.bg.Drain()...)
	writeJSON(w, http.StatusOK, envelope{Data: out})
}
