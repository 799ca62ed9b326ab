package services

import (
	"context"
	"encoding/json"
	"net/http"

	"fleetdash/internal/api"
	"fleetdash/internal/models"
)

type VideoService struct {
	c *api.Client
}

func NewVideoService(c *api.Client) *VideoService { return &VideoService{c: c} }

// ── Videos ──

func (s *VideoService) List(ctx context.Context) ([]models.Video, error) {
	return s.list(ctx, "/videos")
}

func (s *VideoService) Active(ctx context.Context) ([]models.Video, error) {
	return s.list(ctx, "/videos/active")
}

func (s *VideoService) ByBrand(ctx context.Context, brandID string) ([]models.Video, error) {
	return s.list(ctx, "/videos/brand/"+seg(brandID))
}

func (s *VideoService) list(ctx context.Context, path string) ([]models.Video, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Video
	if err := decodeList(path, raw, &out, "videos", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload posts the multipart form (file, filename, description, brand,
// expiryDate). Progress is reported through the form's callback.
func (s *VideoService) Upload(ctx context.Context, form *api.Multipart) (*models.Video, error) {
	if form == nil || !form.HasFile() {
		return nil, api.Local("Please select a video file")
	}
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPost, "/upload", form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to upload video"); err != nil {
		return nil, err
	}
	return s.one("/upload", raw)
}

// Update edits metadata only.
func (s *VideoService) Update(ctx context.Context, id string, upd models.VideoUpdate) (*models.VideoReply, error) {
	path := "/edit/" + seg(id)
	var raw json.RawMessage
	if err := s.c.Put(ctx, path, upd, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to update video"); err != nil {
		return nil, err
	}
	return record[models.VideoReply](path, raw, videoKeys...)
}

// UpdateForm edits a video with a multipart body, used when the file is
// replaced.
func (s *VideoService) UpdateForm(ctx context.Context, id string, form *api.Multipart) (*models.VideoReply, error) {
	path := "/edit/" + seg(id)
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPut, path, form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to update video"); err != nil {
		return nil, err
	}
	return record[models.VideoReply](path, raw, videoKeys...)
}

func (s *VideoService) Delete(ctx context.Context, id string) error {
	var raw json.RawMessage
	if err := s.c.Delete(ctx, "/delete-video/"+seg(id), nil, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to delete video")
}

var videoKeys = []string{"video", "data"}

func (s *VideoService) one(path string, raw json.RawMessage) (*models.Video, error) {
	return record[models.Video](path, raw, videoKeys...)
}

// ── Brands ──

func (s *VideoService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/brands", nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Brand
	if err := decodeList("/brands", raw, &out, "brands", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VideoService) GetBrand(ctx context.Context, id string) (*models.Brand, error) {
	path := "/brands/" + seg(id)
	var raw json.RawMessage
	if err := s.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Brand not found"); err != nil {
		return nil, err
	}
	return s.brand(path, raw)
}

// CreateBrand refuses forms missing name, phone or address before any
// request is sent.
func (s *VideoService) CreateBrand(ctx context.Context, form *api.Multipart) (*models.Brand, error) {
	if form == nil {
		form = api.NewMultipart()
	}
	for _, f := range []string{"name", "phone", "address"} {
		if v, ok := form.Value(f); !ok || v == "" {
			return nil, api.Local("%s is required", f)
		}
	}
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPost, "/brands", form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to create brand"); err != nil {
		return nil, err
	}
	return s.brand("/brands", raw)
}

func (s *VideoService) UpdateBrand(ctx context.Context, id string, form *api.Multipart) (*models.BrandReply, error) {
	path := "/brands/" + seg(id)
	var raw json.RawMessage
	if err := s.c.Upload(ctx, http.MethodPut, path, form, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to update brand"); err != nil {
		return nil, err
	}
	return record[models.BrandReply](path, raw, brandKeys...)
}

func (s *VideoService) DeleteBrand(ctx context.Context, id string) error {
	var raw json.RawMessage
	if err := s.c.Delete(ctx, "/brands/"+seg(id), nil, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to delete brand")
}

var brandKeys = []string{"brand", "data"}

func (s *VideoService) brand(path string, raw json.RawMessage) (*models.Brand, error) {
	return record[models.Brand](path, raw, brandKeys...)
}
