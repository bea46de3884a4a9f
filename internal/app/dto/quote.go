package dto

import (
	"time"

	domaincalendar "furnishedstay/internal/domain/calendar"
)

type AlternativeStay struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Price    int64  `json:"price"`
}

type Quote struct {
	Available        bool              `json:"available"`
	Nights           int               `json:"nights"`
	PricePerNight    int64             `json:"price_per_night,omitempty"`
	TotalPrice       int64             `json:"total_price,omitempty"`
	SpecialOffer     string            `json:"special_offer,omitempty"`
	UnavailableDates []string          `json:"unavailable_dates,omitempty"`
	AlternativeDates []AlternativeStay `json:"alternative_dates,omitempty"`
}

func MapQuote(q domaincalendar.Quote) Quote {
	out := Quote{
		Available:     q.Available,
		Nights:        q.Nights,
		PricePerNight: q.PricePerNight.Amount,
		TotalPrice:    q.TotalPrice.Amount,
		SpecialOffer:  q.SpecialOffer,
	}
	for _, date := range q.UnavailableDates {
		out.UnavailableDates = append(out.UnavailableDates, date.Format(time.DateOnly))
	}
	for _, alt := range q.Alternatives {
		out.AlternativeDates = append(out.AlternativeDates, AlternativeStay{
			CheckIn:  alt.Range.CheckIn.Format(time.DateOnly),
			CheckOut: alt.Range.CheckOut.Format(time.DateOnly),
			Price:    alt.TotalPrice.Amount,
		})
	}
	return out
}
