package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"fleetdash/internal/pages"
)

func TestPromptConfirmer(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		var out bytes.Buffer
		p := promptConfirmer{in: bufio.NewReader(strings.NewReader(in)), out: &out}
		if got := p.Confirm("Delete?"); got != want {
			t.Errorf("%q: got %v, want %v", in, got, want)
		}
		if !strings.Contains(out.String(), "Delete? [y/N]") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestQuietSwallowsDecline(t *testing.T) {
	if err := quiet(errors.Wrap(pages.ErrDeclined, "delete")); err != nil {
		t.Fatalf("declined: %v", err)
	}
	other := errors.New("boom")
	if err := quiet(other); err != other {
		t.Fatalf("other: %v", err)
	}
}

func TestSelectionFromArgs(t *testing.T) {
	sel := selection([]string{"d1", "d2", "d1"})
	if sel.Len() != 2 {
		t.Fatalf("ids = %v", sel.IDs())
	}
}
