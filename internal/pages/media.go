package pages

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"fleetdash/internal/api"
	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/views"
)

// ── Videos ──

type Videos struct{ *Env }

func NewVideos(env *Env) *Videos { return &Videos{env} }

// VideoRow is one table row; Expired drives the badge.
type VideoRow struct {
	Video     models.Video `json:"video"`
	BrandName string       `json:"brand_name"`
	Expired   bool         `json:"expired"`
	Expiry    string       `json:"expiry"`
}

// Load fetches videos and brands; the brand list only feeds the brand picker
// so its failure is logged and not reported.
func (p *Videos) Load(ctx context.Context) error {
	videos, err := p.Videos.List(ctx)
	if err != nil {
		return p.failStatic(err, "Failed to fetch videos")
	}
	p.VideoStore.SetVideos(videos)

	if brands, err := p.Videos.ListBrands(ctx); err != nil {
		p.log().WithError(err).Warn("fetch brands for video form")
	} else {
		p.VideoStore.SetBrands(brands)
	}
	return nil
}

// LoadActive replaces the list with the videos the backend still plays.
func (p *Videos) LoadActive(ctx context.Context) error {
	videos, err := p.Videos.Active(ctx)
	if err != nil {
		return p.failStatic(err, "Failed to fetch videos")
	}
	p.VideoStore.SetVideos(videos)
	return nil
}

func (p *Videos) Rows() []VideoRow {
	now := p.now()
	list := p.VideoStore.Videos()
	rows := make([]VideoRow, len(list))
	for i, v := range list {
		name := v.Brand.Name
		if name == "" {
			if b, ok := p.VideoStore.Brand(v.Brand.ID); ok {
				name = b.Name
			}
		}
		rows[i] = VideoRow{Video: v, BrandName: name, Expired: views.IsExpired(v.ExpiryDate, now), Expiry: views.FormatDate(v.ExpiryDate)}
	}
	return rows
}

// Upload posts a new video, tracking progress in the video store. Progress
// returns to 0 when the upload ends either way.
func (p *Videos) Upload(ctx context.Context, f forms.VideoForm) (*models.Video, error) {
	f.Editing = false
	var created *models.Video
	err := f.Submit(ctx, func(ctx context.Context, pl forms.VideoPayload) error {
		pl.Form.OnProgress(func(sent, total int64) {
			p.VideoStore.SetUploadProgress(api.Percent(sent, total))
		})
		defer p.VideoStore.SetUploadProgress(0)
		v, err := p.Videos.Upload(ctx, pl.Form)
		if err != nil {
			return err
		}
		if v != nil {
			p.VideoStore.AddVideo(*v)
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, p.failStatic(err, "Failed to upload video")
	}
	p.Notify.Success("Video uploaded successfully")
	return created, nil
}

func (p *Videos) Update(ctx context.Context, id string, f forms.VideoForm) error {
	f.Editing = true
	err := f.Submit(ctx, func(ctx context.Context, pl forms.VideoPayload) error {
		var (
			v   *models.VideoReply
			err error
		)
		if pl.Form != nil {
			v, err = p.Videos.UpdateForm(ctx, id, pl.Form)
		} else {
			v, err = p.Videos.Update(ctx, id, *pl.JSON)
		}
		if err != nil {
			return err
		}
		if v != nil {
			p.VideoStore.UpdateVideo(id, v.Patch)
		}
		return nil
	})
	if err != nil {
		return p.failStatic(err, "Failed to update video")
	}
	p.Notify.Success("Video updated successfully")
	return nil
}

func (p *Videos) Delete(ctx context.Context, id string) error {
	if !p.confirm("Are you sure you want to delete this video?") {
		return ErrDeclined
	}
	if err := p.Videos.Delete(ctx, id); err != nil {
		return p.failStatic(err, "Failed to delete video")
	}
	p.VideoStore.DeleteVideo(id)
	p.Notify.Success("Video deleted successfully")
	return nil
}

// ── Brands ──

type Brands struct{ *Env }

func NewBrands(env *Env) *Brands { return &Brands{env} }

type BrandRow struct {
	Brand      models.Brand `json:"brand"`
	VideoCount int          `json:"video_count"`
}

func (p *Brands) Load(ctx context.Context) error {
	brands, err := p.Videos.ListBrands(ctx)
	if err != nil {
		return p.failStatic(err, "Failed to fetch brands")
	}
	p.VideoStore.SetBrands(brands)
	return nil
}

func (p *Brands) Rows() []BrandRow {
	list := p.VideoStore.Brands()
	rows := make([]BrandRow, len(list))
	for i, b := range list {
		rows[i] = BrandRow{Brand: b, VideoCount: p.VideoStore.BrandVideoCount(b)}
	}
	return rows
}

// BrandView is one brand with the videos it owns.
type BrandView struct {
	Brand  models.Brand   `json:"brand"`
	Videos []models.Video `json:"videos"`
}

// Show fetches a brand and its videos in parallel.
func (p *Brands) Show(ctx context.Context, id string) (*BrandView, error) {
	var (
		brand  *models.Brand
		videos []models.Video
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { brand, err = p.Videos.GetBrand(gctx, id); return })
	g.Go(func() (err error) { videos, err = p.Videos.ByBrand(gctx, id); return })
	err := g.Wait()
	if err == nil && brand == nil {
		err = api.Local("Brand not found")
	}
	if err != nil {
		return nil, p.fail(err, "Failed to fetch brand")
	}
	if videos == nil {
		videos = []models.Video{}
	}
	if brand.VideoCount == nil {
		n := len(videos)
		brand.VideoCount = &n
	}
	return &BrandView{Brand: *brand, Videos: videos}, nil
}

func (p *Brands) Create(ctx context.Context, f forms.BrandForm) (*models.Brand, error) {
	var created *models.Brand
	err := f.Submit(ctx, func(ctx context.Context, m *api.Multipart) error {
		b, err := p.Videos.CreateBrand(ctx, m)
		if err != nil {
			return err
		}
		if b != nil {
			p.VideoStore.AddBrand(*b)
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, p.fail(err, "Failed to create brand")
	}
	p.Notify.Success("Brand created successfully")
	return created, nil
}

func (p *Brands) Update(ctx context.Context, id string, f forms.BrandForm) error {
	err := f.Submit(ctx, func(ctx context.Context, m *api.Multipart) error {
		b, err := p.Videos.UpdateBrand(ctx, id, m)
		if err != nil {
			return err
		}
		if b != nil {
			p.VideoStore.UpdateBrand(id, b.Patch)
		}
		return nil
	})
	if err != nil {
		return p.fail(err, "Failed to update brand")
	}
	p.Notify.Success("Brand updated successfully")
	return nil
}

// Delete reports the server's success:false message but a fixed text for
// transport failures.
func (p *Brands) Delete(ctx context.Context, id string) error {
	if !p.confirm("Are you sure you want to delete this brand?") {
		return ErrDeclined
	}
	if err := p.Videos.DeleteBrand(ctx, id); err != nil {
		var local *api.LocalError
		if errors.As(err, &local) {
			return p.fail(err, "Failed to delete brand")
		}
		return p.failStatic(err, "Failed to delete brand")
	}
	p.VideoStore.DeleteBrand(id)
	p.Notify.Success("Brand deleted successfully")
	return nil
}
