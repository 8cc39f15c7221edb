package uistate

import (
	"agent-workspace/internal/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) prefs(c *gin.Context) *Preferences {
	return NewPreferences(h.store, c.GetString("user_id"))
}

func (h *Handler) ShowPanelWidth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"width": h.prefs(c).PanelWidth(c.Request.Context())})
}

func (h *Handler) SavePanelWidth(c *gin.Context) {
	var body struct {
		Width int `json:"width" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errors.BadRequest("Invalid panel width", err))
		return
	}

	prefs := h.prefs(c)
	prefs.SetPanelWidth(c.Request.Context(), body.Width)
	c.JSON(http.StatusOK, gin.H{"width": prefs.PanelWidth(c.Request.Context())})
}

func (h *Handler) ShowScrollOffset(c *gin.Context) {
	offset := h.prefs(c).ScrollOffset(c.Request.Context(), c.Param("agentId"))
	c.JSON(http.StatusOK, gin.H{"offset": offset})
}

func (h *Handler) SaveScrollOffset(c *gin.Context) {
	var body struct {
		Offset int `json:"offset"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errors.BadRequest("Invalid scroll offset", err))
		return
	}

	h.prefs(c).SetScrollOffset(c.Request.Context(), c.Param("agentId"), body.Offset)
	c.JSON(http.StatusOK, gin.H{"offset": body.Offset})
}
