package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/events"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/ingest"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/mapping"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/session"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/store"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/validate"
)

// Handlers bundles the collaborators the contribute API needs.
type Handlers struct {
	Sessions  *session.Store
	DataStore store.DataStore
	Publisher events.Publisher
}

// NewHandlers wires up the handler set.
func NewHandlers(sessions *session.Store, ds store.DataStore, pub events.Publisher) *Handlers {
	return &Handlers{Sessions: sessions, DataStore: ds, Publisher: pub}
}

// RegisterRoutes attaches the contribute API under /api/v1.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		uploads := v1.Group("/uploads")
		{
			uploads.POST("", h.CreateUpload)
			uploads.GET("/:id", h.GetUpload)
			uploads.PUT("/:id/mapping", h.UpdateMapping)
			uploads.PUT("/:id/rules", h.UpdateRules)
			uploads.PUT("/:id/fields", h.UpdateAdditionalFields)
			uploads.PUT("/:id/dataset", h.UpdateDataset)
			uploads.POST("/:id/fixes", h.ApplyFixes)
			uploads.POST("/:id/rows/delete", h.DeleteErrorRows)
			uploads.POST("/:id/rows/undo", h.UndoRows)
			uploads.GET("/:id/report.csv", h.DownloadErrorReport)
			uploads.POST("/:id/submit", h.Submit)
		}
		v1.GET("/datasets", h.ListDatasets)
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// mappingRequest is the payload for the column-role endpoint.
type mappingRequest struct {
	Roles []models.Role `json:"roles" binding:"required"`
}

// CreateUpload godoc
// @Summary Upload a CSV file and open a contribute session
// @Description Parses the uploaded .csv file, runs structural validation, and returns the new session snapshot.
// @Tags uploads
// @Accept  mpfd
// @Produce json
// @Param   file  formData  file  true  "CSV file"
// @Success 201 {object} ingest.View "New session snapshot"
// @Failure 400 {object} models.APIError "Parse failure (wrong extension, malformed CSV, missing headers, empty data)"
// @Router /uploads [post]
func (h *Handlers) CreateUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "A single CSV file is required in the 'file' form field.", gin.H{"reason": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to read uploaded file.", nil)
		return
	}
	defer file.Close()

	table, err := csvparse.Parse(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		var parseErr *csvparse.ParseError
		if errors.As(err, &parseErr) {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeParseFailure, parseErr.Message, gin.H{"kind": parseErr.Kind})
			return
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to parse uploaded file.", nil)
		return
	}

	sess := ingest.NewSession(fileHeader.Filename, table)
	h.Sessions.Put(sess)
	log.Printf("Handlers: opened session %s for file %q (%d columns, %d rows)", sess.ID, fileHeader.Filename, len(table.Headers), len(table.Rows))
	RespondWithSuccess(c, http.StatusCreated, sess.Snapshot())
}

// GetUpload godoc
// @Summary Get the current session snapshot
// @Tags uploads
// @Produce json
// @Param   id  path  string  true  "Session ID"
// @Success 200 {object} ingest.View
// @Failure 404 {object} models.APIError
// @Router /uploads/{id} [get]
func (h *Handlers) GetUpload(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// UpdateMapping godoc
// @Summary Replace the column-role mapping
// @Description Assigns a logical role to every column and re-runs validation. The response includes duplicate-role warnings; duplicates are allowed (last one wins).
// @Tags uploads
// @Accept  json
// @Produce json
// @Param   id      path  string          true  "Session ID"
// @Param   mapping body  mappingRequest  true  "One role per column, index-aligned"
// @Success 200 {object} ingest.View
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /uploads/{id}/mapping [put]
func (h *Handlers) UpdateMapping(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid mapping payload.", gin.H{"reason": err.Error()})
		return
	}
	if err := sess.SetRoles(req.Roles); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// UpdateRules godoc
// @Summary Replace the schema rules
// @Tags uploads
// @Accept  json
// @Produce json
// @Param   id    path  string               true  "Session ID"
// @Param   rules body  validate.SchemaRules true  "Per-field rules"
// @Success 200 {object} ingest.View
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /uploads/{id}/rules [put]
func (h *Handlers) UpdateRules(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var rules validate.SchemaRules
	if err := c.ShouldBindJSON(&rules); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid rules payload.", gin.H{"reason": err.Error()})
		return
	}
	if err := sess.SetRules(rules); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// UpdateAdditionalFields godoc
// @Summary Set the manual applies-to-every-row fields
// @Tags uploads
// @Accept  json
// @Produce json
// @Param   id     path  string                    true  "Session ID"
// @Param   fields body  mapping.AdditionalFields  true  "Manual fallback values"
// @Success 200 {object} ingest.View
// @Failure 404 {object} models.APIError
// @Router /uploads/{id}/fields [put]
func (h *Handlers) UpdateAdditionalFields(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var fields mapping.AdditionalFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid additional-fields payload.", gin.H{"reason": err.Error()})
		return
	}
	if err := sess.SetAdditionalFields(fields); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// UpdateDataset godoc
// @Summary Set the dataset metadata draft
// @Tags uploads
// @Accept  json
// @Produce json
// @Param   id      path  string                       true  "Session ID"
// @Param   dataset body  models.UpdateDatasetRequest  true  "Dataset provenance metadata"
// @Success 200 {object} ingest.View
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /uploads/{id}/dataset [put]
func (h *Handlers) UpdateDataset(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var req models.UpdateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid dataset payload.", gin.H{"reason": err.Error()})
		return
	}
	if err := sess.SetDataset(req); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// lookupSession resolves the :id path parameter, writing the error response
// itself when the id is malformed or unknown.
func (h *Handlers) lookupSession(c *gin.Context) (*ingest.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Session id must be a UUID.", gin.H{"id": c.Param("id")})
		return nil, false
	}
	sess, ok := h.Sessions.Get(id)
	if !ok {
		RespondWithError(c, http.StatusNotFound, models.ErrorCodeSessionNotFound, fmt.Sprintf("No upload session with id %s.", id), nil)
		return nil, false
	}
	return sess, true
}

// respondSessionError maps session-level errors onto API responses.
func (h *Handlers) respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrSubmitInFlight):
		RespondWithError(c, http.StatusConflict, models.ErrorCodeSubmitInFlight, err.Error(), nil)
	case errors.Is(err, ingest.ErrNothingToDelete):
		RespondWithError(c, http.StatusConflict, models.ErrorCodeNothingToDelete, err.Error(), nil)
	case errors.Is(err, ingest.ErrNothingToUndo):
		RespondWithError(c, http.StatusConflict, models.ErrorCodeNothingToUndo, err.Error(), nil)
	default:
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, err.Error(), nil)
	}
}
