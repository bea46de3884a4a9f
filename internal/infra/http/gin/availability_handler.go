package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"furnishedstay/internal/app/dto"
	availabilityapp "furnishedstay/internal/app/handlers/availability"
	"furnishedstay/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, err := time.Parse(time.DateOnly, c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in: expected YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse(time.DateOnly, c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out: expected YYYY-MM-DD"})
		return
	}
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guests"})
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{
		PropertyID: c.Param("id"),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     guests,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
