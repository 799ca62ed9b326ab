package store

import (
	"sync"

	"fleetdash/internal/models"
)

type VideoStore struct {
	videos *Collection[models.Video]
	brands *Collection[models.Brand]

	mu       sync.RWMutex
	progress int
}

func NewVideoStore() *VideoStore {
	return &VideoStore{
		videos: NewCollection[models.Video](),
		brands: NewCollection[models.Brand](),
	}
}

// ── videos ──

func (s *VideoStore) SetVideos(list []models.Video) { s.videos.Load(list) }

func (s *VideoStore) Videos() []models.Video { return s.videos.All() }

func (s *VideoStore) Video(id string) (models.Video, bool) { return s.videos.Get(id) }

// AddVideo puts the newest upload first.
func (s *VideoStore) AddVideo(v models.Video) { s.videos.ApplyCreate(v, true) }

func (s *VideoStore) UpdateVideo(id string, p models.VideoPatch) bool {
	return s.videos.ApplyUpdate(id, p.Apply)
}

func (s *VideoStore) DeleteVideo(id string) bool { return s.videos.ApplyDelete(id) }

// ── brands ──

func (s *VideoStore) SetBrands(list []models.Brand) { s.brands.Load(list) }

func (s *VideoStore) Brands() []models.Brand { return s.brands.All() }

func (s *VideoStore) Brand(id string) (models.Brand, bool) { return s.brands.Get(id) }

func (s *VideoStore) AddBrand(b models.Brand) { s.brands.ApplyCreate(b, false) }

func (s *VideoStore) UpdateBrand(id string, p models.BrandPatch) bool {
	return s.brands.ApplyUpdate(id, p.Apply)
}

func (s *VideoStore) DeleteBrand(id string) bool { return s.brands.ApplyDelete(id) }

// BrandVideoCount prefers the backend's videoCount and falls back to
// counting cached videos.
func (s *VideoStore) BrandVideoCount(b models.Brand) int {
	if b.VideoCount != nil {
		return *b.VideoCount
	}
	n := 0
	for _, v := range s.videos.All() {
		if v.Brand.ID == b.ID {
			n++
		}
	}
	return n
}

// ── upload progress ──

// SetUploadProgress records a 0..100 percentage.
func (s *VideoStore) SetUploadProgress(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.mu.Lock()
	s.progress = pct
	s.mu.Unlock()
}

func (s *VideoStore) UploadProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}
