package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/firtrack/fir-tracking-api/api"
	"github.com/firtrack/fir-tracking-api/config"
	"github.com/firtrack/fir-tracking-api/databases"
	"github.com/firtrack/fir-tracking-api/dispatch"
	"github.com/firtrack/fir-tracking-api/lifecycle"
	"github.com/firtrack/fir-tracking-api/models"
)

// Fir exported for testing purposes
type Fir struct {
	DB         databases.FirDatabase
	Dispatcher *dispatch.Dispatcher
}

// CreateFirHandler files a new FIR for the authenticated client
func (f Fir) CreateFirHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	var req lifecycle.FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fir, err := f.Dispatcher.File(ctx, user, req)
	if err != nil {
		if errors.Is(err, lifecycle.ErrValidation) {
			config.ErrorStatus("invalid FIR", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to create FIR", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(fir)
}

// FirsHandler returns all FIRs for an admin, or the requesting client's own
// FIRs, newest first
func (f Fir) FirsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	filter := bson.M{}
	if user.Role != models.RoleAdmin {
		filter = bson.M{"clientId": user.ID.Hex()}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	dbResp, err := f.DB.Find(ctx, filter, sort)
	if err != nil {
		config.ErrorStatus("failed to get FIRs", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.FIR{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dbResp)
}

// FirByIDHandler retrieves a FIR by its ID. A client may only read their own
// records; a mismatch is an authorization failure, not an empty result.
func (f Fir) FirByIDHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	firID := mux.Vars(r)["fir_id"]
	fID, err := primitive.ObjectIDFromHex(firID)
	if err != nil {
		config.ErrorStatus("invalid FIR ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fir, err := f.DB.FindOne(ctx, bson.M{"_id": fID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus("FIR not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to find FIR", http.StatusInternalServerError, w, err)
		return
	}

	if user.Role != models.RoleAdmin && fir.ClientID != user.ID.Hex() {
		config.ErrorStatus("not authorized", http.StatusForbidden, w, errors.New("fir belongs to another client"))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fir)
}

// UpdateFirHandler applies a sparse admin update to a FIR. Only fields present
// in the body are touched.
func (f Fir) UpdateFirHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	firID := mux.Vars(r)["fir_id"]
	fID, err := primitive.ObjectIDFromHex(firID)
	if err != nil {
		config.ErrorStatus("invalid FIR ID", http.StatusBadRequest, w, err)
		return
	}

	var change lifecycle.ChangeSet
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fir, err := f.Dispatcher.Update(ctx, user, fID, change)
	if err != nil {
		writeDispatchError(w, "failed to update FIR", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fir)
}

// DeleteFirHandler removes a FIR permanently
func (f Fir) DeleteFirHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	firID := mux.Vars(r)["fir_id"]
	fID, err := primitive.ObjectIDFromHex(firID)
	if err != nil {
		config.ErrorStatus("invalid FIR ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := f.Dispatcher.Remove(ctx, user, fID); err != nil {
		writeDispatchError(w, "failed to delete FIR", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "FIR removed"}`))
}

// FirStatsHandler returns the admin dashboard statistics
func (f Fir) FirStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	total, err := f.DB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count FIRs", http.StatusInternalServerError, w, err)
		return
	}
	open, err := f.DB.CountDocuments(ctx, bson.M{"isClosed": false})
	if err != nil {
		config.ErrorStatus("failed to count open FIRs", http.StatusInternalServerError, w, err)
		return
	}
	closed, err := f.DB.CountDocuments(ctx, bson.M{"isClosed": true})
	if err != nil {
		config.ErrorStatus("failed to count closed FIRs", http.StatusInternalServerError, w, err)
		return
	}
	underInvestigation, err := f.DB.CountDocuments(ctx, bson.M{"status": lifecycle.StatusUnderInvestigation})
	if err != nil {
		config.ErrorStatus("failed to count FIRs under investigation", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.FirStats{
		TotalFIRs:          total,
		OpenFIRs:           open,
		ClosedFIRs:         closed,
		UnderInvestigation: underInvestigation,
	})
}

func writeDispatchError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, lifecycle.ErrUnauthorized):
		config.ErrorStatus(message, http.StatusForbidden, w, err)
	case errors.Is(err, lifecycle.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}
