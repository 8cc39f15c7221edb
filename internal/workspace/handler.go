package workspace

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.service.ListAgents(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": agents})
}

func (h *Handler) ShowAgent(c *gin.Context) {
	agent, err := h.service.GetAgent(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, agent)
}

func (h *Handler) ShowWorkspace(c *gin.Context) {
	ws, err := h.service.GetWorkspace(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ws)
}
