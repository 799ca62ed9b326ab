package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleetdash/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.APIConfig{BaseURL: srv.URL + "/api/"}, TokenFunc(func() string { return token }))
}

func TestDoSendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotPath, gotCT string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":"yes"}`))
	}, "tok123")

	var out struct{ OK string }
	if err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.c"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/api/auth/login" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotCT != "application/json" {
		t.Fatalf("content-type = %q", gotCT)
	}
	if gotBody["email"] != "a@b.c" {
		t.Fatalf("body = %v", gotBody)
	}
	if out.OK != "yes" {
		t.Fatalf("decoded = %+v", out)
	}
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected authorization %q", h)
		}
	}, "")
	if err := c.Get(context.Background(), "/rpi", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestDoErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Device already exists"}`))
	}, "")

	err := c.Post(context.Background(), "/rpi", map[string]string{}, nil)
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("status = %d, err = %v", StatusOf(err), err)
	}
	if got := MessageOr(err, "Failed to add device"); got != "Device already exists" {
		t.Fatalf("message = %q", got)
	}
}

func TestMessageOrFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>boom</html>`))
	}, "")

	err := c.Get(context.Background(), "/videos", nil, nil)
	if got := MessageOr(err, "Failed to fetch videos"); got != "Failed to fetch videos" {
		t.Fatalf("message = %q", got)
	}
	if got := MessageOr(Local("Filename is required"), "x"); got != "Filename is required" {
		t.Fatalf("local message = %q", got)
	}
	if got := MessageOr(nil, "x"); got != "" {
		t.Fatalf("nil message = %q", got)
	}
}

func TestUnauthorizedHook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "stale")

	var hooked error
	c.OnUnauthorized(func(err error) { hooked = err })

	err := c.Get(context.Background(), "/auth/profile", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if hooked == nil || StatusOf(hooked) != http.StatusUnauthorized {
		t.Fatalf("hook not called with the response error: %v", hooked)
	}
}

func TestRateLimitedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, "")
	err := c.Get(context.Background(), "/auth/users", nil, nil)
	if !IsRateLimited(err) {
		t.Fatalf("expected 429, got %v", err)
	}
	if IsUnauthorized(err) {
		t.Fatal("429 must not count as unauthorized")
	}
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rpis":"not-a-list"}`))
	}, "")

	var out struct {
		Rpis []string `json:"rpis"`
	}
	err := c.Get(context.Background(), "/rpi", nil, &out)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T %v", err, err)
	}
	if de.Path != "/rpi" {
		t.Fatalf("path = %q", de.Path)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Get(ctx, "/rpi", nil, nil)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestUploadMultipartWithProgress(t *testing.T) {
	var fields = map[string]string{}
	var fileBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
			return
		}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file: %v", err)
			return
		}
		b, _ := io.ReadAll(f)
		fileBody = string(b)
		_, _ = w.Write([]byte(`{"video":{"_id":"v1"}}`))
	}, "tok")

	var last int
	var calls int
	form := NewMultipart().
		Field("filename", "promo.mp4").
		Field("description", "").
		Field("brand", "b1").
		File("file", "promo.mp4", strings.NewReader("binary-video-bytes")).
		OnProgress(func(sent, total int64) {
			calls++
			last = Percent(sent, total)
		})

	if err := c.Upload(context.Background(), http.MethodPost, "/upload", form, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if fields["filename"] != "promo.mp4" || fields["brand"] != "b1" {
		t.Fatalf("fields = %v", fields)
	}
	if _, ok := fields["description"]; ok {
		t.Fatal("empty description should not be sent")
	}
	if fileBody != "binary-video-bytes" {
		t.Fatalf("file body = %q", fileBody)
	}
	if calls == 0 || last != 100 {
		t.Fatalf("progress calls=%d last=%d", calls, last)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		sent, total int64
		want        int
	}{
		{0, 0, 0},
		{0, 200, 0},
		{1, 3, 33},
		{2, 3, 67},
		{50, 100, 50},
		{120, 100, 100},
	}
	for _, tc := range cases {
		if got := Percent(tc.sent, tc.total); got != tc.want {
			t.Errorf("Percent(%d,%d) = %d, want %d", tc.sent, tc.total, got, tc.want)
		}
	}
}
