package document

import (
	"agent-workspace/internal/errors"
	"agent-workspace/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ShowAgentDocuments(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	agentID := c.Param("agentId")

	infos, err := h.service.ListForAgent(c.Request.Context(), workspaceID, agentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": infos})
}

func (h *Handler) ShowDocument(c *gin.Context) {
	doc, err := h.service.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.Error(errors.NotFound("Document not found", err))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}
