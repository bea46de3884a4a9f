package dto

import (
	"time"

	domaincalendar "furnishedstay/internal/domain/calendar"
	domainsync "furnishedstay/internal/domain/sync"
)

type CalendarDay struct {
	Date        string `json:"date"`
	Status      string `json:"status"`
	Price       int64  `json:"price"`
	GuestRef    string `json:"guest_ref,omitempty"`
	BlockReason string `json:"block_reason,omitempty"`
	BlockNote   string `json:"block_note,omitempty"`
}

type CalendarStats struct {
	AvailableDays int `json:"available_days"`
	BookedDays    int `json:"booked_days"`
	BlockedDays   int `json:"blocked_days"`
	OccupancyRate int `json:"occupancy_rate"`
}

type PricingProfile struct {
	Currency     string           `json:"currency"`
	BasePrice    int64            `json:"base_price"`
	AveragePrice int64            `json:"average_price"`
	MaxPrice     int64            `json:"max_price"`
	MinPrice     int64            `json:"min_price"`
	Prices       map[string]int64 `json:"prices"`
}

type SyncLink struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	AutoSync     bool   `json:"auto_sync"`
	LastSyncAt   string `json:"last_sync_at,omitempty"`
	EventsCount  int    `json:"events_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type Calendar struct {
	PropertyID string         `json:"property_id"`
	Days       []CalendarDay  `json:"days"`
	Stats      CalendarStats  `json:"stats"`
	Pricing    PricingProfile `json:"pricing"`
	Links      []SyncLink     `json:"links"`
}

func MapDay(d domaincalendar.Day) CalendarDay {
	return CalendarDay{
		Date:        d.Date.Format(time.DateOnly),
		Status:      string(d.Status),
		Price:       d.Price.Amount,
		GuestRef:    d.GuestRef,
		BlockReason: string(d.BlockReason),
		BlockNote:   d.BlockNote,
	}
}

func MapStats(s domaincalendar.Stats) CalendarStats {
	return CalendarStats{
		AvailableDays: s.AvailableDays,
		BookedDays:    s.BookedDays,
		BlockedDays:   s.BlockedDays,
		OccupancyRate: s.OccupancyRate,
	}
}

func MapPricing(cal *domaincalendar.Calendar) PricingProfile {
	stats := cal.PricingStats()
	prices := make(map[string]int64)
	for date, price := range cal.Overrides() {
		prices[date.Format(time.DateOnly)] = price.Amount
	}
	return PricingProfile{
		Currency:     stats.BasePrice.Currency,
		BasePrice:    stats.BasePrice.Amount,
		AveragePrice: stats.AveragePrice.Amount,
		MaxPrice:     stats.MaxPrice.Amount,
		MinPrice:     stats.MinPrice.Amount,
		Prices:       prices,
	}
}

func MapLink(link domainsync.Link) SyncLink {
	out := SyncLink{
		ID:           link.ID,
		Name:         link.Name,
		Type:         string(link.Type),
		URL:          link.URL,
		Status:       string(link.Status),
		AutoSync:     link.AutoSync,
		EventsCount:  link.EventsCount,
		ErrorMessage: link.ErrorMessage,
	}
	if !link.LastSyncAt.IsZero() {
		out.LastSyncAt = link.LastSyncAt.UTC().Format(time.RFC3339)
	}
	return out
}

func MapCalendar(cal *domaincalendar.Calendar, reg *domainsync.Registry) Calendar {
	if cal == nil {
		return Calendar{}
	}
	tracked := cal.TrackedDays()
	days := make([]CalendarDay, 0, len(tracked))
	for _, d := range tracked {
		days = append(days, MapDay(d))
	}
	links := []SyncLink{}
	if reg != nil {
		for _, link := range reg.Links() {
			links = append(links, MapLink(link))
		}
	}
	return Calendar{
		PropertyID: string(cal.PropertyID),
		Days:       days,
		Stats:      MapStats(cal.Stats()),
		Pricing:    MapPricing(cal),
		Links:      links,
	}
}
