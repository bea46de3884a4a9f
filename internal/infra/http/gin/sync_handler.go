package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	syncapp "furnishedstay/internal/app/handlers/sync"
)

type SyncHandler struct {
	Commands commands.Bus
}

type addLinkRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	URL      string `json:"url" binding:"required"`
	AutoSync bool   `json:"auto_sync"`
}

func (h SyncHandler) AddLink(c *gin.Context) {
	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := syncapp.AddLinkCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      c.Param("id"),
		Name:            req.Name,
		Type:            req.Type,
		URL:             req.URL,
		AutoSync:        req.AutoSync,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[syncapp.AddLinkCommand, *dto.SyncLink](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SyncHandler) RemoveLink(c *gin.Context) {
	cmd := syncapp.RemoveLinkCommand{
		CommandID:  uuid.NewString(),
		PropertyID: c.Param("id"),
		LinkID:     c.Param("linkId"),
	}
	if _, err := commands.Dispatch[syncapp.RemoveLinkCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h SyncHandler) TriggerSync(c *gin.Context) {
	cmd := syncapp.TriggerSyncCommand{
		CommandID:  uuid.NewString(),
		PropertyID: c.Param("id"),
		LinkID:     c.Param("linkId"),
	}
	result, err := commands.Dispatch[syncapp.TriggerSyncCommand, *dto.SyncLink](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

var _ SyncHTTP = SyncHandler{}
