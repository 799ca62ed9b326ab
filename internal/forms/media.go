package forms

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"fleetdash/internal/api"
	"fleetdash/internal/models"
)

// Attachment is a file picked for upload.
type Attachment struct {
	Name string
	Size int64
	R    io.Reader
}

func (a *Attachment) present() bool { return a != nil && a.R != nil }

// ── Brand ──

type BrandForm struct {
	Name        string
	Phone       string
	Email       string
	Address     string
	Description string
	Logo        *Attachment
}

var BrandRules = []Rule{
	{Field: "name", Required: "Brand name is required"},
	{Field: "phone", Required: "Phone number is required"},
	emailRule(false),
	{Field: "address", Required: "Address is required"},
}

func BrandFormFrom(b models.Brand) BrandForm {
	return BrandForm{Name: b.Name, Phone: b.Phone, Email: b.Email, Address: b.Address, Description: b.Description}
}

func (f BrandForm) get(field string) string {
	return fieldMap(map[string]string{
		"name":        f.Name,
		"phone":       f.Phone,
		"email":       f.Email,
		"address":     f.Address,
		"description": f.Description,
	})(field)
}

func (f BrandForm) Validate() Errors { return validate(BrandRules, f.get) }

// Multipart is always used for brands, logo or not.
func (f BrandForm) Multipart() *api.Multipart {
	m := api.NewMultipart().
		Field("name", strings.TrimSpace(f.Name)).
		Field("phone", strings.TrimSpace(f.Phone)).
		Field("email", strings.TrimSpace(f.Email)).
		Field("address", strings.TrimSpace(f.Address)).
		Field("description", f.Description)
	if f.Logo.present() {
		m.File("logo", f.Logo.Name, f.Logo.R)
	}
	return m
}

func (f BrandForm) Submit(ctx context.Context, onSubmit func(context.Context, *api.Multipart) error) error {
	return submit(ctx, f.Validate(), func() (*api.Multipart, error) { return f.Multipart(), nil }, onSubmit)
}

// ── Video ──

const MaxVideoSize = 500 << 20

var videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true}

type VideoForm struct {
	// Editing is set when the form updates an existing video; the file
	// is then optional.
	Editing     bool
	Filename    string
	Description string
	BrandID     string
	ExpiryDate  *time.Time
	File        *Attachment
}

// VideoPayload carries exactly one of Form or JSON.
type VideoPayload struct {
	Form *api.Multipart
	JSON *models.VideoUpdate
}

func (f VideoForm) rules() []Rule {
	creating := func(Getter) bool { return !f.Editing }
	return []Rule{
		{Field: "file", Required: "Please select a video file", When: creating},
		{Field: "file", Check: func(Getter) string { return checkVideoFile(f.File) }},
		{Field: "filename", Required: "Filename is required"},
		{Field: "brand", Required: "Brand selection is required"},
	}
}

func checkVideoFile(a *Attachment) string {
	if !a.present() {
		return ""
	}
	if !videoExts[strings.ToLower(filepath.Ext(a.Name))] {
		return "Unsupported video format (use mp4, avi, mov or mkv)"
	}
	if a.Size > MaxVideoSize {
		return "File size must be less than 500MB"
	}
	return ""
}

// VideoFormFrom pre-fills the edit dialog.
func VideoFormFrom(v models.Video) VideoForm {
	return VideoForm{
		Editing:     true,
		Filename:    v.Filename,
		Description: v.Description,
		BrandID:     v.Brand.ID,
		ExpiryDate:  v.ExpiryDate,
	}
}

// WithFile attaches a file and defaults the filename to its base name.
func (f VideoForm) WithFile(a *Attachment) VideoForm {
	f.File = a
	if strings.TrimSpace(f.Filename) == "" && a != nil {
		f.Filename = strings.TrimSuffix(filepath.Base(a.Name), filepath.Ext(a.Name))
	}
	return f
}

func (f VideoForm) get(field string) string {
	switch field {
	case "file":
		if f.File.present() {
			return f.File.Name
		}
		return ""
	case "filename":
		return f.Filename
	case "brand":
		return f.BrandID
	case "description":
		return f.Description
	}
	return ""
}

func (f VideoForm) Validate() Errors { return validate(f.rules(), f.get) }

// Payload is multipart when a file is attached, JSON otherwise.
func (f VideoForm) Payload() VideoPayload {
	if f.File.present() {
		m := api.NewMultipart().File("file", f.File.Name, f.File.R).
			Field("filename", strings.TrimSpace(f.Filename)).
			Field("brand", f.BrandID).
			Set("description", f.Description) // empty clears it on edit
		if f.ExpiryDate != nil {
			m.Field("expiryDate", f.ExpiryDate.UTC().Format(time.RFC3339))
		}
		return VideoPayload{Form: m}
	}
	return VideoPayload{JSON: &models.VideoUpdate{
		Filename:    strings.TrimSpace(f.Filename),
		Description: f.Description,
		Brand:       f.BrandID,
		ExpiryDate:  f.ExpiryDate,
	}}
}

func (f VideoForm) Submit(ctx context.Context, onSubmit func(context.Context, VideoPayload) error) error {
	return submit(ctx, f.Validate(), func() (VideoPayload, error) { return f.Payload(), nil }, onSubmit)
}
