// Package ingest drives the contribute flow for one uploaded file: parse,
// validate, map, fix, project, submit. A Session is the single mutable unit
// of work; all operations on it are sequential reactions to client requests.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/events"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/mapping"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/projection"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/store"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/validate"
)

// State is the session's position in the ingestion state machine.
type State string

const (
	StateMapping    State = "Mapping"
	StateReady      State = "Ready"
	StateSubmitting State = "Submitting"
	StateSucceeded  State = "Succeeded"
	StateFailed     State = "Failed"
)

var (
	// ErrNothingToDelete signals a delete request with no error rows; the
	// client gets an explicit answer rather than a silent no-op.
	ErrNothingToDelete = errors.New("there are no error rows to delete")
	// ErrNothingToUndo signals an undo with an empty buffer.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNotReady signals a submit while required fields are unsatisfied.
	ErrNotReady = errors.New("required fields are not satisfied; submission is blocked")
	// ErrSubmitInFlight signals a second submit (or an edit) while one
	// submission is already running.
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	// ErrAlreadySubmitted signals a submit on a session whose data was
	// already stored. A fix or deletion reopens the session for editing.
	ErrAlreadySubmitted = errors.New("this upload was already submitted")
	// ErrDatasetTitleMissing signals a submit without dataset metadata.
	ErrDatasetTitleMissing = errors.New("dataset title is required before submission")
)

// snapshot is the single-slot undo buffer: the pre-mutation rows and report.
type snapshot struct {
	rows   []csvparse.Row
	report *models.ValidationReport
}

// Session holds everything about one uploaded file: the parsed table, the
// column mapping, the schema rules, the current validation report, the
// dataset metadata draft and the undo buffer.
type Session struct {
	ID        uuid.UUID
	Filename  string
	CreatedAt time.Time
	UpdatedAt time.Time

	State     State
	Table     *csvparse.RawTable
	Mapping   *mapping.Controller
	Rules     validate.SchemaRules
	Report    *models.ValidationReport
	Dataset   models.Dataset
	LastError string

	undo *snapshot
	mu   sync.Mutex
}

// NewSession wraps a freshly parsed table. Every column starts as Ignore and
// the structural checks run immediately.
func NewSession(filename string, table *csvparse.RawTable) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New(),
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		State:     StateMapping,
		Table:     table,
		Mapping:   mapping.NewController(len(table.Headers)),
		Rules:     validate.DefaultRules(),
	}
	s.revalidate()
	return s
}

// SetRoles replaces the column-role assignment and re-runs validation.
func (s *Session) SetRoles(roles []models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}
	if err := s.Mapping.SetRoles(roles); err != nil {
		return err
	}
	s.revalidate()
	return nil
}

// SetRules replaces the schema rules and re-runs validation.
func (s *Session) SetRules(rules validate.SchemaRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}
	if err := rules.Validate(); err != nil {
		return err
	}
	s.Rules = rules
	s.revalidate()
	return nil
}

// SetAdditionalFields replaces the manual per-upload overrides and re-runs
// validation. The override values face the same field rules as mapped cells,
// so a bad manual date is rejected straight away instead of surfacing as a
// per-row failure at projection time.
func (s *Session) SetAdditionalFields(fields mapping.AdditionalFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}
	for _, role := range []models.Role{models.RoleName, models.RolePlace, models.RoleDate, models.RolePeriod} {
		value := fields.ValueFor(role)
		if value == "" {
			continue
		}
		if err := s.Rules.CheckValue(role, value); err != nil {
			return err
		}
	}
	s.Mapping.Additional = fields
	s.revalidate()
	return nil
}

// SetDataset stores the dataset metadata draft collected by the contribute
// form.
func (s *Session) SetDataset(req models.UpdateDatasetRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}
	s.Dataset = models.Dataset{
		Title:              req.Title,
		License:            req.License,
		OriginalURL:        req.OriginalURL,
		PublishedDate:      req.PublishedDate,
		Owner:              req.Owner,
		DatasetDescription: req.DatasetDescription,
		GeographicLevel:    req.GeographicLevel,
	}
	s.touch()
	return nil
}

// DeleteErrorRows drops every row the current report flags, saving the
// pre-deletion state in the single-slot undo buffer. Deleting with a clean
// report returns ErrNothingToDelete.
func (s *Session) DeleteErrorRows() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return 0, ErrSubmitInFlight
	}
	if s.Report == nil || len(s.Report.ErrorRows) == 0 {
		return 0, ErrNothingToDelete
	}

	s.saveUndo()
	kept := make([]csvparse.Row, 0, len(s.Table.Rows))
	deleted := 0
	for i, row := range s.Table.Rows {
		if s.Report.HasErrorRow(i) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.Table.Rows = kept
	s.revalidate()
	return deleted, nil
}

// Undo restores the rows and report captured before the last destructive
// operation. Only one level of undo is kept; a second fix or deletion before
// undo overwrites the buffer.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}
	if s.undo == nil {
		return ErrNothingToUndo
	}
	s.Table.Rows = s.undo.rows
	s.Report = s.undo.report
	s.undo = nil
	s.refreshState()
	s.touch()
	return nil
}

// SubmitResult reports what a successful submission wrote.
type SubmitResult struct {
	DatasetID    uuid.UUID `json:"dataset_id"`
	Observations int       `json:"observations"`
}

// Submit re-checks readiness, projects the table and performs the two
// external writes: one datasets row, then the observation batch. A failed
// batch insert does not roll back the dataset row; the error names the
// orphaned dataset id so it can be reaped. Succeeded is terminal for
// submission: re-submitting the same data requires a fix or deletion first,
// which reopens the session.
func (s *Session) Submit(ctx context.Context, ds store.DataStore, pub events.Publisher) (SubmitResult, error) {
	s.mu.Lock()
	switch s.State {
	case StateSubmitting:
		s.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	case StateSucceeded:
		s.mu.Unlock()
		return SubmitResult{}, ErrAlreadySubmitted
	}
	if !s.Mapping.IsComplete(s.Rules) {
		s.mu.Unlock()
		return SubmitResult{}, ErrNotReady
	}
	if s.Dataset.Title == "" {
		s.mu.Unlock()
		return SubmitResult{}, ErrDatasetTitleMissing
	}
	s.State = StateSubmitting
	s.touch()

	datasetID := uuid.New()
	observations, err := projection.Project(s.Table, s.Mapping, datasetID)
	if err != nil {
		s.fail(err)
		s.mu.Unlock()
		return SubmitResult{}, err
	}
	dataset := s.Dataset
	dataset.ID = datasetID
	// The lock is not held across the external writes; concurrent requests
	// observe StateSubmitting and are rejected instead of queueing.
	s.mu.Unlock()

	if err := ds.InsertDataset(ctx, &dataset); err != nil {
		s.failNow(err)
		return SubmitResult{}, err
	}

	if err := ds.InsertObservations(ctx, observations); err != nil {
		err = fmt.Errorf("observation batch insert failed, dataset record %s was kept: %w", datasetID, err)
		s.failNow(err)
		return SubmitResult{}, err
	}

	s.mu.Lock()
	s.State = StateSucceeded
	s.LastError = ""
	s.touch()
	s.mu.Unlock()
	log.Printf("Ingest: session %s submitted dataset %s with %d observations", s.ID, datasetID, len(observations))

	if pub != nil {
		event := events.IngestedEvent{
			DatasetID:    datasetID.String(),
			Title:        dataset.Title,
			Observations: len(observations),
			IngestedAt:   time.Now().UTC(),
		}
		if err := pub.DatasetIngested(event); err != nil {
			// Publishing is best-effort; the data is already stored.
			log.Printf("Ingest: failed to publish ingested event for dataset %s: %v", datasetID, err)
		}
	}

	return SubmitResult{DatasetID: datasetID, Observations: len(observations)}, nil
}

// IsStale reports whether the session was last touched before the cutoff
// and is safe to purge. Sessions mid-submission are never stale.
func (s *Session) IsStale(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State != StateSubmitting && s.UpdatedAt.Before(cutoff)
}

// Completion derives the current required-field coverage.
func (s *Session) Completion() models.CompletionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Mapping.Completion(s.Rules)
}

// revalidate rebuilds the full report (structural + schema) and refreshes
// the state. Full recomputation keeps the report trivially consistent with
// the current inputs.
func (s *Session) revalidate() {
	report := validate.Structural(s.Table)
	report.Merge(validate.Schema(s.Table, s.Mapping.Roles, s.Rules))
	s.Report = report
	s.refreshState()
	s.touch()
}

// refreshState moves between Mapping and Ready based on completion. A
// session that already reached a terminal state returns to the editing
// states whenever its inputs change.
func (s *Session) refreshState() {
	if s.State == StateSubmitting {
		return
	}
	if s.Mapping.IsComplete(s.Rules) {
		s.State = StateReady
	} else {
		s.State = StateMapping
	}
}

func (s *Session) fail(err error) {
	s.State = StateFailed
	s.LastError = err.Error()
	s.touch()
}

// failNow is fail for callers that do not hold the session lock.
func (s *Session) failNow(err error) {
	s.mu.Lock()
	s.fail(err)
	s.mu.Unlock()
}

func (s *Session) saveUndo() {
	rows := make([]csvparse.Row, len(s.Table.Rows))
	for i, row := range s.Table.Rows {
		rows[i] = append(csvparse.Row(nil), row...)
	}
	s.undo = &snapshot{rows: rows, report: s.Report.Clone()}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
