package views

import (
	"math"
	"time"

	"fleetdash/internal/models"
)

type StatusCounts struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Warning     int `json:"warning"`
	Maintenance int `json:"maintenance"`
}

func CountByStatus(list []models.Device) StatusCounts {
	c := StatusCounts{Total: len(list)}
	for _, d := range list {
		switch d.Status {
		case models.DeviceActive:
			c.Active++
		case models.DeviceInactive:
			c.Inactive++
		case models.DeviceWarning:
			c.Warning++
		case models.DeviceMaintenance:
			c.Maintenance++
		}
	}
	return c
}

// UptimePercent is round(active/total*100), 0 for an empty fleet.
func UptimePercent(active, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(active) / float64(total) * 100))
}

// IsExpired reports whether expiry lies in the past. No expiry never expires.
func IsExpired(expiry *time.Time, now time.Time) bool {
	return expiry != nil && now.After(*expiry)
}

func ActiveVideos(list []models.Video, now time.Time) int {
	n := 0
	for _, v := range list {
		if !IsExpired(v.ExpiryDate, now) {
			n++
		}
	}
	return n
}

type Summary struct {
	Devices       StatusCounts       `json:"devices"`
	Stats         models.DeviceStats `json:"stats"`
	TotalVideos   int                `json:"total_videos"`
	ActiveVideos  int                `json:"active_videos"`
	ExpiredVideos int                `json:"expired_videos"`
	TotalBrands   int                `json:"total_brands"`
	UptimePercent int                `json:"uptime_percent"`
}

// Dashboard computes the landing page figures.
func Dashboard(devices []models.Device, videos []models.Video, brands []models.Brand, stats models.DeviceStats, now time.Time) Summary {
	counts := CountByStatus(devices)
	active := ActiveVideos(videos, now)
	return Summary{
		Devices:       counts,
		Stats:         stats,
		TotalVideos:   len(videos),
		ActiveVideos:  active,
		ExpiredVideos: len(videos) - active,
		TotalBrands:   len(brands),
		UptimePercent: UptimePercent(counts.Active, counts.Total),
	}
}
