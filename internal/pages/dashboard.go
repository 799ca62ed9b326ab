package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fleetdash/internal/models"
	"fleetdash/internal/views"
)

type Dashboard struct{ *Env }

func NewDashboard(env *Env) *Dashboard { return &Dashboard{env} }

// Load fetches devices, videos, brands and device stats in parallel, fills
// the stores and returns the summary. Any failure fails the whole load.
func (p *Dashboard) Load(ctx context.Context) (views.Summary, error) {
	var (
		devices []models.Device
		videos  []models.Video
		brands  []models.Brand
		stats   *models.DeviceStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { devices, err = p.Devices.List(gctx); return })
	g.Go(func() (err error) { videos, err = p.Videos.List(gctx); return })
	g.Go(func() (err error) { brands, err = p.Videos.ListBrands(gctx); return })
	g.Go(func() (err error) { stats, err = p.Devices.Stats(gctx); return })
	if err := g.Wait(); err != nil {
		return views.Summary{}, p.fail(err, "Failed to fetch dashboard data")
	}

	p.DeviceStore.SetDevices(devices)
	p.VideoStore.SetVideos(videos)
	p.VideoStore.SetBrands(brands)
	if stats != nil {
		p.DeviceStore.SetStats(*stats)
	}
	return p.Summary(), nil
}

// Summary recomputes the figures from what the stores hold.
func (p *Dashboard) Summary() views.Summary {
	return views.Dashboard(
		p.DeviceStore.Devices(),
		p.VideoStore.Videos(),
		p.VideoStore.Brands(),
		p.DeviceStore.Stats(),
		p.now(),
	)
}
