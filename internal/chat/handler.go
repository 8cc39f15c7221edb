package chat

import (
	"agent-workspace/internal/errors"
	defError "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ShowMessages(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	agentID := c.Param("agentId")

	messages, err := h.service.LoadMessages(c.Request.Context(), workspaceID, agentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var form SendMessageRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.BadRequest("Invalid input", err))
		return
	}

	err := h.service.SendMessage(
		c.Request.Context(),
		c.Param("workspaceId"),
		c.Param("agentId"),
		c.GetString("user_id"),
		form.Text,
	)
	if err != nil {
		var apiErr *errors.APIError
		if defError.As(err, &apiErr) {
			c.Error(apiErr)
		} else {
			// webhook refusals carry their own message, keep it for the client
			c.Error(errors.New(http.StatusBadGateway, err.Error(), err))
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "forwarded"})
}

func (h *Handler) MarkRead(c *gin.Context) {
	err := h.service.MarkRead(
		c.Request.Context(),
		c.Param("workspaceId"),
		c.Param("agentId"),
		c.GetString("user_id"),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
