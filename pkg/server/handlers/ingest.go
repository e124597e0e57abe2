package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/notes"
)

// IngestHandler serves write operations: note ingestion and cache
// administration.
type IngestHandler struct {
	client *medadvisor.Client
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(client *medadvisor.Client) *IngestHandler {
	return &IngestHandler{client: client}
}

// IngestNoteRequest is the body of POST /api/v1/ingest/note.
type IngestNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// IngestNote parses a raw discharge note and loads it into the graph.
func (h *IngestHandler) IngestNote(c *gin.Context) {
	var req IngestNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	note := notes.ParseText(req.Text)
	nodeCount, relCount, err := h.client.Loader.LoadDischargeNote(c.Request.Context(), note)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":    note.PatientID,
		"nodes":         nodeCount,
		"relationships": relCount,
	})
}

// ClearCache handles DELETE /api/v1/cache.
func (h *IngestHandler) ClearCache(c *gin.Context) {
	h.client.Executor.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}
