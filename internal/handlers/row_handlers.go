package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/ingest"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/projection"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/store"
)

// ApplyFixes godoc
// @Summary Apply bulk fix suggestions
// @Description Trims whitespace, coerces numeric-looking strings, and normalizes dates in Date-mapped columns. The pre-fix state stays recoverable via undo.
// @Tags uploads
// @Produce json
// @Param   id  path  string  true  "Session ID"
// @Success 200 {object} ingest.View
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError "Submission in flight"
// @Router /uploads/{id}/fixes [post]
func (h *Handlers) ApplyFixes(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := sess.ApplyFixes(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// DeleteErrorRows godoc
// @Summary Delete every row the current report flags
// @Description Removes all error rows, keeping the pre-deletion state in a single-slot undo buffer. Responds 409 when there is nothing to delete.
// @Tags uploads
// @Produce json
// @Param   id  path  string  true  "Session ID"
// @Success 200 {object} ingest.View
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError "Nothing to delete or submission in flight"
// @Router /uploads/{id}/rows/delete [post]
func (h *Handlers) DeleteErrorRows(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	deleted, err := sess.DeleteErrorRows()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	log.Printf("Handlers: session %s deleted %d error rows", sess.ID, deleted)
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// UndoRows godoc
// @Summary Undo the last fix or deletion
// @Tags uploads
// @Produce json
// @Param   id  path  string  true  "Session ID"
// @Success 200 {object} ingest.View
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError "Undo buffer is empty"
// @Router /uploads/{id}/rows/undo [post]
func (h *Handlers) UndoRows(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := sess.Undo(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, sess.Snapshot())
}

// DownloadErrorReport godoc
// @Summary Download the validation report as CSV
// @Description Returns a CSV with columns row, column, errors. Row numbers are offset by the header row (raw index + 2).
// @Tags uploads
// @Produce text/csv
// @Param   id  path  string  true  "Session ID"
// @Success 200 {string} string "CSV payload"
// @Failure 404 {object} models.APIError
// @Router /uploads/{id}/report.csv [get]
func (h *Handlers) DownloadErrorReport(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}
	payload, err := sess.ErrorReportCSV()
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to build error report.", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="validation-errors.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// Submit godoc
// @Summary Submit the session
// @Description Re-checks readiness, projects the table into observations, inserts the dataset row and then the observation batch. A failed batch insert leaves the dataset row in place; the error names its id.
// @Tags uploads
// @Produce json
// @Param   id  path  string  true  "Session ID"
// @Success 200 {object} ingest.SubmitResult
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError "Not ready, duplicate title, already submitted, or submission in flight"
// @Failure 422 {object} models.APIError "Projection failed"
// @Failure 502 {object} models.APIError "External store write failed"
// @Router /uploads/{id}/submit [post]
func (h *Handlers) Submit(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}

	result, err := sess.Submit(c.Request.Context(), h.DataStore, h.Publisher)
	if err != nil {
		var projErr *projection.Error
		switch {
		case errors.Is(err, ingest.ErrSubmitInFlight):
			RespondWithError(c, http.StatusConflict, models.ErrorCodeSubmitInFlight, err.Error(), nil)
		case errors.Is(err, ingest.ErrAlreadySubmitted):
			RespondWithError(c, http.StatusConflict, models.ErrorCodeAlreadySubmitted, err.Error(), nil)
		case errors.Is(err, ingest.ErrNotReady):
			RespondWithError(c, http.StatusConflict, models.ErrorCodeNotReady, err.Error(), gin.H{"completion": sess.Completion()})
		case errors.Is(err, ingest.ErrDatasetTitleMissing):
			RespondWithError(c, http.StatusConflict, models.ErrorCodeNotReady, err.Error(), nil)
		case errors.As(err, &projErr):
			RespondWithError(c, http.StatusUnprocessableEntity, models.ErrorCodeProjectionFailed, "Projection failed; no data was inserted.", projErr)
		case errors.Is(err, store.ErrDuplicateTitle):
			RespondWithError(c, http.StatusConflict, models.ErrorCodeDuplicateTitle, err.Error(), nil)
		default:
			RespondWithError(c, http.StatusBadGateway, models.ErrorCodeStoreWriteFailed, err.Error(), nil)
		}
		return
	}
	RespondWithSuccess(c, http.StatusOK, result)
}

// ListDatasets godoc
// @Summary List stored datasets
// @Tags datasets
// @Produce json
// @Success 200 {array} models.Dataset
// @Failure 500 {object} models.APIError
// @Router /datasets [get]
func (h *Handlers) ListDatasets(c *gin.Context) {
	datasets, err := h.DataStore.ListDatasets(c.Request.Context())
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list datasets.", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, datasets)
}
