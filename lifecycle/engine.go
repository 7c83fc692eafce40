package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/firtrack/fir-tracking-api/models"
)

// FIR status values. The set is fixed but no ordering is enforced: an admin
// may set any status at any time, including reopening a closed case.
const (
	StatusFiled              = "Filed"
	StatusUnderInvestigation = "Under Investigation"
	StatusDocumentsReview    = "Documents Review"
	StatusActionTaken        = "Action Taken"
	StatusClosed             = "Closed"
)

// Priority values
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Statuses is the fixed ordered set of FIR statuses
var Statuses = []string{
	StatusFiled,
	StatusUnderInvestigation,
	StatusDocumentsReview,
	StatusActionTaken,
	StatusClosed,
}

// Categories is the fixed set of FIR categories
var Categories = []string{"Theft", "Assault", "Fraud", "Cybercrime", "Missing Person", "Other"}

// Priorities is the fixed set of FIR priorities
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Sentinel errors for the FIR lifecycle. Callers match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("not authorized")
	ErrNotFound          = errors.New("fir not found")
	ErrNumberingConflict = errors.New("fir number conflict")
)

// FileRequest carries the client-supplied fields for a new FIR
type FileRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Validate checks the required fields and the category enumeration
func (r FileRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if r.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !contains(Categories, r.Category) {
		return fmt.Errorf("%w: invalid category %q", ErrValidation, r.Category)
	}
	return nil
}

// ChangeSet is a sparse admin update. Nil fields are left untouched on the
// record; only present fields are applied.
type ChangeSet struct {
	Status            *string                    `json:"status"`
	InspectorName     *string                    `json:"inspectorName"`
	InspectorBadge    *string                    `json:"inspectorBadge"`
	DocumentsRequired *[]models.RequiredDocument `json:"documentsRequired"`
	IsClosed          *bool                      `json:"isClosed"`
	Priority          *string                    `json:"priority"`
}

// Engine is the sole authority for producing a new valid FIR state from an
// existing one plus a requested change. It performs no I/O.
type Engine struct {
	Now func() time.Time
}

// NewEngine returns an engine using the wall clock
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

// FileCase constructs a new FIR for the given client with the default
// document checklist and a single "Filed" history entry. The firNumber must
// come from the Numbering service inside the same logical create operation.
func (e *Engine) FileCase(client models.User, req FileRequest, firNumber string) (models.FIR, error) {
	if err := req.Validate(); err != nil {
		return models.FIR{}, err
	}

	now := e.Now()
	return models.FIR{
		ID:             primitive.NewObjectID(),
		FirNumber:      firNumber,
		ClientID:       client.ID.Hex(),
		ClientName:     client.Name,
		ClientEmail:    client.Email,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		InspectorName:  "Not Assigned",
		InspectorBadge: "N/A",
		Status:         StatusFiled,
		DocumentsRequired: []models.RequiredDocument{
			{Name: "Identity Proof", Signed: false},
			{Name: "Address Proof", Signed: false},
			{Name: "Incident Report", Signed: false},
		},
		IsClosed: false,
		Priority: PriorityMedium,
		StatusHistory: []models.StatusHistory{
			{
				Status:      StatusFiled,
				Description: "FIR has been filed successfully",
				UpdatedBy:   client.Name,
				Timestamp:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyUpdate returns a copy of the existing FIR with the change set applied.
// Supplying a status always appends a history entry, even when the status is
// unchanged. UpdatedAt moves forward on every call, empty change set included.
func (e *Engine) ApplyUpdate(existing models.FIR, change ChangeSet, actorName string) (models.FIR, error) {
	if change.Status != nil && !contains(Statuses, *change.Status) {
		return models.FIR{}, fmt.Errorf("%w: invalid status %q", ErrValidation, *change.Status)
	}
	if change.Priority != nil && !contains(Priorities, *change.Priority) {
		return models.FIR{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, *change.Priority)
	}

	updated := existing
	updated.DocumentsRequired = append([]models.RequiredDocument(nil), existing.DocumentsRequired...)
	updated.StatusHistory = append([]models.StatusHistory(nil), existing.StatusHistory...)

	now := e.Now()
	if change.Status != nil {
		updated.Status = *change.Status
		updated.IsClosed = *change.Status == StatusClosed
		updated.StatusHistory = append(updated.StatusHistory, models.StatusHistory{
			Status:      *change.Status,
			Description: "Status updated to " + *change.Status,
			UpdatedBy:   actorName,
			Timestamp:   now,
		})
	}
	if change.InspectorName != nil {
		updated.InspectorName = *change.InspectorName
	}
	if change.InspectorBadge != nil {
		updated.InspectorBadge = *change.InspectorBadge
	}
	if change.DocumentsRequired != nil {
		// full overwrite of the checklist, not a merge by name
		updated.DocumentsRequired = append([]models.RequiredDocument(nil), *change.DocumentsRequired...)
	}
	if change.IsClosed != nil {
		updated.IsClosed = *change.IsClosed
	}
	if change.Priority != nil {
		updated.Priority = *change.Priority
	}
	updated.UpdatedAt = now

	return updated, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
