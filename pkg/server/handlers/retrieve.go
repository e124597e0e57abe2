package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/executor"
	"github.com/graphrx/medadvisor/pkg/queries"
)

const defaultSearchLimit = 5

// RetrieveHandler serves read queries against the knowledge graph.
type RetrieveHandler struct {
	client *medadvisor.Client
}

// NewRetrieveHandler creates a retrieve handler.
func NewRetrieveHandler(client *medadvisor.Client) *RetrieveHandler {
	return &RetrieveHandler{client: client}
}

// PatientMedications handles GET /api/v1/patients/:id/medications. An
// unknown patient is a 404, not an empty list.
func (h *RetrieveHandler) PatientMedications(c *gin.Context) {
	patientID := c.Param("id")

	rows, err := h.client.Executor.Read(c.Request.Context(), queries.PatientMedications(patientID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": executor.ErrPatientNotFound.Error(), "patient_id": patientID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(rows), "results": rows})
}

// PatientDiagnoses handles GET /api/v1/patients/:id/diagnoses.
func (h *RetrieveHandler) PatientDiagnoses(c *gin.Context) {
	patientID := c.Param("id")
	h.respondRows(c, queries.PatientDiagnoses(patientID))
}

// PatientAdvice handles GET /api/v1/patients/:id/advice with an
// optional category query parameter.
func (h *RetrieveHandler) PatientAdvice(c *gin.Context) {
	patientID := c.Param("id")
	category := c.Query("category")
	h.respondRows(c, queries.PatientAdvice(patientID, category))
}

// DrugInteractions handles GET /api/v1/medications/:name/interactions.
func (h *RetrieveHandler) DrugInteractions(c *gin.Context) {
	h.respondRows(c, queries.DrugInteractions(c.Param("name")))
}

// MedicationInfo handles GET /api/v1/medications/:name/info. An
// unmatched name is a 404.
func (h *RetrieveHandler) MedicationInfo(c *gin.Context) {
	name := c.Param("name")

	rows, err := h.client.Executor.Read(c.Request.Context(), queries.DrugInfo(name))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": executor.ErrMedicationNotFound.Error(), "medication": name})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(rows), "results": rows})
}

// MedicationDosage handles GET /api/v1/medications/:name/dosage with an
// optional patient_id query parameter.
func (h *RetrieveHandler) MedicationDosage(c *gin.Context) {
	h.respondRows(c, queries.MedicationSchedule(c.Param("name"), c.Query("patient_id")))
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	SearchTerm     string `json:"search_term" binding:"required"`
	MedicationName string `json:"medication_name"`
	Limit          int    `json:"limit"`
}

// SearchAdvice handles POST /api/v1/search: fulltext search over
// discharge advice.
func (h *RetrieveHandler) SearchAdvice(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search_term is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	q, err := queries.SearchAdvice(req.SearchTerm, req.MedicationName, req.Limit)
	if err != nil {
		if errors.Is(err, queries.ErrEmptySearch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "search term contains no searchable text"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respondRows(c, q)
}

// Contraindications handles GET /api/v1/contraindications with
// medication and diagnosis query parameters, at least one required.
func (h *RetrieveHandler) Contraindications(c *gin.Context) {
	q, err := queries.Contraindications(c.Query("medication"), c.Query("diagnosis"))
	if err != nil {
		if errors.Is(err, queries.ErrNoFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide a medication or diagnosis parameter"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respondRows(c, q)
}

func (h *RetrieveHandler) respondRows(c *gin.Context, q queries.Query) {
	rows, err := h.client.Executor.Read(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(rows),
		"results": rows,
	})
}
