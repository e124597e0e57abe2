package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/agent"
)

// ChatHandler serves agent conversations.
type ChatHandler struct {
	client *medadvisor.Client
}

// NewChatHandler creates a chat handler.
func NewChatHandler(client *medadvisor.Client) *ChatHandler {
	return &ChatHandler{client: client}
}

// ChatTurn mirrors one prior exchange supplied by the caller.
type ChatTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// ChatRequest is the body of POST /api/v1/chat. The API is stateless;
// callers thread their own history.
type ChatRequest struct {
	Question string     `json:"question" binding:"required"`
	History  []ChatTurn `json:"history"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	if h.client.Agent == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat is not available: no LLM endpoint configured"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	history := make([]agent.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, agent.Turn{User: turn.User, Assistant: turn.Assistant})
	}

	answer, err := h.client.Agent.Ask(c.Request.Context(), req.Question, history)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
