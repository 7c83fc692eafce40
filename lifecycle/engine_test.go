package lifecycle_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/firtrack/fir-tracking-api/lifecycle"
	"github.com/firtrack/fir-tracking-api/models"
)

func testClient() models.User {
	return models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Asha Verma",
		Email: "asha@example.com",
		Role:  models.RoleClient,
	}
}

func TestFileCase(t *testing.T) {
	engine := lifecycle.NewEngine()
	client := testClient()

	fir, err := engine.FileCase(client, lifecycle.FileRequest{
		Title:       "Stolen bike",
		Description: "Bike stolen from the market parking lot",
		Category:    "Theft",
	}, "FIR2025000042")

	assert.NoError(t, err)
	assert.Equal(t, "FIR2025000042", fir.FirNumber)
	assert.Equal(t, lifecycle.StatusFiled, fir.Status)
	assert.Equal(t, client.ID.Hex(), fir.ClientID)
	assert.Equal(t, "Asha Verma", fir.ClientName)
	assert.Equal(t, "Not Assigned", fir.InspectorName)
	assert.Equal(t, "N/A", fir.InspectorBadge)
	assert.Equal(t, lifecycle.PriorityMedium, fir.Priority)
	assert.False(t, fir.IsClosed)

	// three mandatory unsigned documents
	assert.Len(t, fir.DocumentsRequired, 3)
	assert.Equal(t, "Identity Proof", fir.DocumentsRequired[0].Name)
	assert.Equal(t, "Address Proof", fir.DocumentsRequired[1].Name)
	assert.Equal(t, "Incident Report", fir.DocumentsRequired[2].Name)
	for _, doc := range fir.DocumentsRequired {
		assert.False(t, doc.Signed)
	}

	// exactly one history entry at creation
	assert.Len(t, fir.StatusHistory, 1)
	assert.Equal(t, lifecycle.StatusFiled, fir.StatusHistory[0].Status)
	assert.Equal(t, "FIR has been filed successfully", fir.StatusHistory[0].Description)
	assert.Equal(t, "Asha Verma", fir.StatusHistory[0].UpdatedBy)
}

func TestFileCaseValidation(t *testing.T) {
	engine := lifecycle.NewEngine()
	client := testClient()

	tests := []struct {
		name string
		req  lifecycle.FileRequest
	}{
		{"empty title", lifecycle.FileRequest{Description: "d", Category: "Theft"}},
		{"empty description", lifecycle.FileRequest{Title: "t", Category: "Theft"}},
		{"empty category", lifecycle.FileRequest{Title: "t", Description: "d"}},
		{"unknown category", lifecycle.FileRequest{Title: "t", Description: "d", Category: "Arson"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.FileCase(client, tc.req, "FIR2025000001")
			assert.ErrorIs(t, err, lifecycle.ErrValidation)
		})
	}
}

func TestApplyUpdateAppendsHistoryPerStatus(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Fraud",
	}, "FIR2025000007")
	assert.NoError(t, err)

	// every status-bearing update appends exactly one entry, repeats included
	statuses := []string{
		lifecycle.StatusUnderInvestigation,
		lifecycle.StatusUnderInvestigation,
		lifecycle.StatusDocumentsReview,
		lifecycle.StatusActionTaken,
	}
	for i, status := range statuses {
		s := status
		fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &s}, "Inspector Rao")
		assert.NoError(t, err)
		assert.Len(t, fir.StatusHistory, 2+i)
		last := fir.StatusHistory[len(fir.StatusHistory)-1]
		assert.Equal(t, s, last.Status)
		assert.Equal(t, fmt.Sprintf("Status updated to %s", s), last.Description)
		assert.Equal(t, "Inspector Rao", last.UpdatedBy)
	}
}

func TestApplyUpdateEmptyChangeSet(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := &lifecycle.Engine{Now: func() time.Time { return now }}

	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Other",
	}, "FIR2025000008")
	assert.NoError(t, err)

	later := now.Add(time.Hour)
	engine.Now = func() time.Time { return later }

	updated, err := engine.ApplyUpdate(fir, lifecycle.ChangeSet{}, "Inspector Rao")
	assert.NoError(t, err)
	assert.Equal(t, fir.Status, updated.Status)
	assert.Equal(t, fir.Priority, updated.Priority)
	assert.Equal(t, fir.DocumentsRequired, updated.DocumentsRequired)
	assert.Len(t, updated.StatusHistory, len(fir.StatusHistory))
	assert.Equal(t, later, updated.UpdatedAt)
}

func TestApplyUpdateClosedFlag(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "Stolen bike", Description: "d", Category: "Theft",
	}, "FIR2025000042")
	assert.NoError(t, err)

	closed := lifecycle.StatusClosed
	fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &closed}, "Inspector Rao")
	assert.NoError(t, err)
	assert.True(t, fir.IsClosed)
	assert.Len(t, fir.StatusHistory, 2)
	assert.Equal(t, "Status updated to Closed", fir.StatusHistory[1].Description)

	// reopening clears the flag
	filed := lifecycle.StatusFiled
	fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &filed}, "Inspector Rao")
	assert.NoError(t, err)
	assert.False(t, fir.IsClosed)

	// closed is derived from status on every status-bearing update
	for _, status := range []string{
		lifecycle.StatusUnderInvestigation,
		lifecycle.StatusClosed,
		lifecycle.StatusActionTaken,
	} {
		s := status
		fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &s}, "Inspector Rao")
		assert.NoError(t, err)
		assert.Equal(t, s == lifecycle.StatusClosed, fir.IsClosed)
	}
}

func TestApplyUpdateExplicitClosedOverride(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Cybercrime",
	}, "FIR2025000009")
	assert.NoError(t, err)

	override := true
	fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{IsClosed: &override}, "Inspector Rao")
	assert.NoError(t, err)
	assert.True(t, fir.IsClosed)
	// no status supplied, so no history entry
	assert.Len(t, fir.StatusHistory, 1)
}

func TestApplyUpdateChecklistOverwrite(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Assault",
	}, "FIR2025000010")
	assert.NoError(t, err)

	docs := []models.RequiredDocument{
		{Name: "Identity Proof", Signed: true},
		{Name: "Medical Report", Signed: false},
	}
	fir, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{DocumentsRequired: &docs}, "Inspector Rao")
	assert.NoError(t, err)
	// full overwrite, not a merge with the defaults
	assert.Len(t, fir.DocumentsRequired, 2)
	assert.True(t, fir.DocumentsRequired[0].Signed)
	assert.Equal(t, "Medical Report", fir.DocumentsRequired[1].Name)
}

func TestApplyUpdateValidation(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Theft",
	}, "FIR2025000011")
	assert.NoError(t, err)

	badStatus := "Reopened"
	_, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &badStatus}, "Inspector Rao")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	badPriority := "Urgent"
	_, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Priority: &badPriority}, "Inspector Rao")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestApplyUpdateDoesNotMutateExisting(t *testing.T) {
	engine := lifecycle.NewEngine()
	fir, err := engine.FileCase(testClient(), lifecycle.FileRequest{
		Title: "t", Description: "d", Category: "Theft",
	}, "FIR2025000012")
	assert.NoError(t, err)

	status := lifecycle.StatusClosed
	_, err = engine.ApplyUpdate(fir, lifecycle.ChangeSet{Status: &status}, "Inspector Rao")
	assert.NoError(t, err)

	assert.Equal(t, lifecycle.StatusFiled, fir.Status)
	assert.Len(t, fir.StatusHistory, 1)
	assert.False(t, fir.IsClosed)
}
