package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"furnishedstay/internal/app/policies"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/money"
	domainsync "furnishedstay/internal/domain/sync"
)

// respondError maps domain sentinels onto HTTP statuses so collaborators can
// distinguish validation problems from conflicts and missing resources.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domaincalendar.ErrPastDate),
		errors.Is(err, domaincalendar.ErrInvalidPrice),
		errors.Is(err, domaincalendar.ErrInvalidReason),
		errors.Is(err, domaincalendar.ErrInvalidGuests),
		errors.Is(err, domaincalendar.ErrNoDates),
		errors.Is(err, domaincalendar.ErrNotBlocked),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, domainsync.ErrInvalidType),
		errors.Is(err, domainsync.ErrInvalidURL),
		errors.Is(err, domainsync.ErrEmptyName),
		errors.Is(err, policies.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, domainsync.ErrLinkNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domaincalendar.ErrDateBooked),
		errors.Is(err, domaincalendar.ErrRangeUnavailable),
		errors.Is(err, domainsync.ErrDuplicateURL),
		errors.Is(err, domainsync.ErrSyncInProgress):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
