package policies

import (
	"context"
	"errors"

	"furnishedstay/internal/app/dto"
)

var ErrUnsupportedFormat = errors.New("export: unsupported format")

// CalendarEncoder serializes a calendar snapshot into one of the supported
// export formats (ical, csv, json).
type CalendarEncoder interface {
	Encode(format string, snapshot dto.Calendar) (data []byte, contentType string, err error)
}

// ExportPublisher stores an export payload and returns a public download URL.
type ExportPublisher interface {
	Publish(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
