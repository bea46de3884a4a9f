package ginserver

import (
	"fmt"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	calendarapp "furnishedstay/internal/app/handlers/calendar"
	"furnishedstay/internal/app/queries"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h CalendarHandler) Snapshot(c *gin.Context) {
	query := calendarapp.GetCalendarQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockDatesRequest struct {
	Dates  []string `json:"dates" binding:"required"`
	Reason string   `json:"reason"`
	Note   string   `json:"note"`
}

func (h CalendarHandler) Block(c *gin.Context) {
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dates, err := parseDates(req.Dates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.BlockDatesCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      c.Param("id"),
		Dates:           dates,
		Reason:          req.Reason,
		Note:            req.Note,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[calendarapp.BlockDatesCommand, *dto.CalendarStats](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type unblockDateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h CalendarHandler) Unblock(c *gin.Context) {
	var req unblockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.UnblockDateCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      c.Param("id"),
		Date:            date,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[calendarapp.UnblockDateCommand, *dto.CalendarStats](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type setPricingRequest struct {
	Dates []string `json:"dates" binding:"required"`
	Price int64    `json:"price" binding:"required"`
}

func (h CalendarHandler) SetPricing(c *gin.Context) {
	var req setPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dates, err := parseDates(req.Dates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.SetPricingCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      c.Param("id"),
		Dates:           dates,
		Price:           req.Price,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[calendarapp.SetPricingCommand, *dto.PricingProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Export(c *gin.Context) {
	query := calendarapp.ExportCalendarQuery{
		PropertyID: c.Param("id"),
		Format:     c.DefaultQuery("format", "json"),
		Publish:    c.Query("publish") == "true",
	}
	result, err := queries.Ask[calendarapp.ExportCalendarQuery, calendarapp.ExportResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.URL != "" {
		c.JSON(http.StatusOK, gin.H{"url": result.URL, "format": result.Format})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

var _ CalendarHTTP = CalendarHandler{}
