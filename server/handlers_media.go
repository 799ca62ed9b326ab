package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleetdash/internal/forms"
	"fleetdash/internal/pages"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// uploads above this spill to temp files
const maxMemory = 32 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// multipartFields parses r once; the returned cleanup removes spilled
// files and closes opened parts.
func multipartFields(r *http.Request) (func(string) string, func(), error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, func() {}, badRequestf("invalid multipart body: %v", err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return r.FormValue, cleanup, nil
}

// attachment returns the named file part, or nil when none was sent.
func attachment(r *http.Request, field string) (*forms.Attachment, func(), error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, badRequestf("read %s: %v", field, err)
	}
	return &forms.Attachment{Name: hdr.Filename, Size: hdr.Size, R: f}, func() { _ = f.Close() }, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, badRequestf("invalid date %q", s)
}

// ── videos ──

// listVideos serves ?active=true from the backend's active list.
func (a *App) listVideos(r *http.Request, env *pages.Env) (any, error) {
	p := pages.NewVideos(env)
	load := p.Load
	if active, _ := strconv.ParseBool(r.URL.Query().Get("active")); active {
		load = p.LoadActive
	}
	if err := load(r.Context()); err != nil {
		return nil, err
	}
	return p.Rows(), nil
}

// videoForm reads a video form from a multipart or JSON body.
func videoForm(r *http.Request) (forms.VideoForm, func(), error) {
	var f forms.VideoForm
	if !isMultipart(r) {
		var b struct {
			Filename    string     `json:"filename"`
			Description string     `json:"description"`
			Brand       string     `json:"brand"`
			ExpiryDate  *time.Time `json:"expiryDate"`
		}
		if err := decodeJSON(r, &b); err != nil {
			return f, func() {}, err
		}
		return forms.VideoForm{Filename: b.Filename, Description: b.Description, BrandID: b.Brand, ExpiryDate: b.ExpiryDate}, func() {}, nil
	}

	get, cleanup, err := multipartFields(r)
	if err != nil {
		return f, cleanup, err
	}
	f.Filename = get("filename")
	f.Description = get("description")
	f.BrandID = get("brand")
	if f.ExpiryDate, err = parseDate(get("expiryDate")); err != nil {
		return f, cleanup, err
	}
	file, closeFile, err := attachment(r, "file")
	if err != nil {
		return f, cleanup, err
	}
	return f.WithFile(file), func() { closeFile(); cleanup() }, nil
}

func (a *App) uploadVideo(r *http.Request, env *pages.Env) (any, error) {
	f, done, err := videoForm(r)
	defer done()
	if err != nil {
		return nil, err
	}
	return pages.NewVideos(env).Upload(r.Context(), f)
}

func (a *App) updateVideo(r *http.Request, env *pages.Env) (any, error) {
	id := mux.Vars(r)["id"]
	f, done, err := videoForm(r)
	defer done()
	if err != nil {
		return nil, err
	}
	if err := pages.NewVideos(env).Update(r.Context(), id, f); err != nil {
		return nil, err
	}
	v, _ := env.VideoStore.Video(id)
	return v, nil
}

func (a *App) deleteVideo(r *http.Request, env *pages.Env) (any, error) {
	id := mux.Vars(r)["id"]
	return map[string]string{"deleted": id}, pages.NewVideos(env).Delete(r.Context(), id)
}

func (a *App) uploadProgress(_ *http.Request, env *pages.Env) (any, error) {
	return map[string]int{"percent": env.VideoStore.UploadProgress()}, nil
}

// ── brands ──

func (a *App) listBrands(r *http.Request, env *pages.Env) (any, error) {
	p := pages.NewBrands(env)
	if err := p.Load(r.Context()); err != nil {
		return nil, err
	}
	return p.Rows(), nil
}

func (a *App) showBrand(r *http.Request, env *pages.Env) (any, error) {
	return pages.NewBrands(env).Show(r.Context(), mux.Vars(r)["id"])
}

func brandForm(r *http.Request) (forms.BrandForm, func(), error) {
	get, cleanup, err := multipartFields(r)
	if err != nil {
		return forms.BrandForm{}, cleanup, err
	}
	f := forms.BrandForm{
		Name:        get("name"),
		Phone:       get("phone"),
		Email:       get("email"),
		Address:     get("address"),
		Description: get("description"),
	}
	logo, closeLogo, err := attachment(r, "logo")
	if err != nil {
		return f, cleanup, err
	}
	f.Logo = logo
	return f, func() { closeLogo(); cleanup() }, nil
}

func (a *App) createBrand(r *http.Request, env *pages.Env) (any, error) {
	f, done, err := brandForm(r)
	defer done()
	if err != nil {
		return nil, err
	}
	return pages.NewBrands(env).Create(r.Context(), f)
}

func (a *App) updateBrand(r *http.Request, env *pages.Env) (any, error) {
	id := mux.Vars(r)["id"]
	f, done, err := brandForm(r)
	defer done()
	if err != nil {
		return nil, err
	}
	if err := pages.NewBrands(env).Update(r.Context(), id, f); err != nil {
		return nil, err
	}
	b, _ := env.VideoStore.Brand(id)
	return b, nil
}

func (a *App) deleteBrand(r *http.Request, env *pages.Env) (any, error) {
	id := mux.Vars(r)["id"]
	return map[string]string{"deleted": id}, pages.NewBrands(env).Delete(r.Context(), id)
}
