package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"fleetdash/config"
	"fleetdash/internal/api"
	"fleetdash/internal/db"
	"fleetdash/internal/pages"
	"fleetdash/internal/store"
)

type cliOptions struct {
	cfg  *config.Config
	yes  bool
	json bool
}

// session is what a one-shot command runs against.
type session struct {
	opts *cliOptions
	env  *pages.Env
	snap *store.Snapshotter
	out  io.Writer
}

// open restores the stored session and wires the controllers with a
// terminal notifier and confirmer.
func (o *cliOptions) open() (*session, error) {
	cfg := o.cfg
	var persister store.Persister = store.NewFilePersister(cfg.Storage.Dir)
	var snap *store.Snapshotter
	if cfg.Database.Driver != "" {
		gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "db open")
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, errors.Wrap(err, "db migrate")
		}
		persister = store.NewDBPersister(gdb)
		snap = store.NewSnapshotter(gdb)
	}

	as := store.NewAuthStore(persister, cfg.Storage.Key)
	if _, err := as.Restore(); err != nil {
		return nil, errors.Wrap(err, "restore session")
	}
	client := api.New(cfg.API, api.TokenFunc(as.Token))

	var confirm pages.Confirmer = pages.AlwaysConfirm{}
	if !o.yes {
		confirm = promptConfirmer{in: bufio.NewReader(os.Stdin), out: os.Stderr}
	}
	env := pages.NewEnv(client, store.NewDeviceStore(), store.NewVideoStore(), as).
		With(termNotifier{w: os.Stderr}, confirm)
	return &session{opts: o, env: env, snap: snap, out: os.Stdout}, nil
}

// ── terminal feedback ──

type termNotifier struct{ w io.Writer }

func (t termNotifier) Success(msg string) { fmt.Fprintln(t.w, "ok:", msg) }
func (t termNotifier) Error(msg string)   { fmt.Fprintln(t.w, "error:", msg) }
func (t termNotifier) Info(msg string)    { fmt.Fprintln(t.w, msg) }

type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// ── output ──

// emit prints v as JSON with --json, otherwise calls table.
func (s *session) emit(v any, table func(w *tabwriter.Writer)) error {
	if s.opts.json {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(s.out, 0, 2, 2, ' ', 0)
	table(w)
	return w.Flush()
}

// quiet maps a declined prompt to a clean exit.
func quiet(err error) error {
	if errors.Is(err, pages.ErrDeclined) {
		return nil
	}
	return err
}
