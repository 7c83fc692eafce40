package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FIR holds the structure for the firs collection in MongoDB
type FIR struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id"`
	FirNumber         string             `json:"firNumber" bson:"firNumber"`
	ClientID          string             `json:"clientId" bson:"clientId"`
	ClientName        string             `json:"clientName" bson:"clientName"`
	ClientEmail       string             `json:"clientEmail" bson:"clientEmail"`
	Title             string             `json:"title" bson:"title"`
	Description       string             `json:"description" bson:"description"`
	Category          string             `json:"category" bson:"category"`
	InspectorName     string             `json:"inspectorName" bson:"inspectorName"`
	InspectorBadge    string             `json:"inspectorBadge" bson:"inspectorBadge"`
	Status            string             `json:"status" bson:"status"`
	DocumentsRequired []RequiredDocument `json:"documentsRequired" bson:"documentsRequired"`
	IsClosed          bool               `json:"isClosed" bson:"isClosed"`
	Priority          string             `json:"priority" bson:"priority"`
	StatusHistory     []StatusHistory    `json:"statusHistory" bson:"statusHistory"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RequiredDocument is a single entry in the FIR document checklist
type RequiredDocument struct {
	Name   string `json:"name" bson:"name"`
	Signed bool   `json:"signed" bson:"signed"`
}

// StatusHistory is a single append-only entry in the FIR status history
type StatusHistory struct {
	Status      string    `json:"status" bson:"status"`
	Description string    `json:"description" bson:"description"`
	UpdatedBy   string    `json:"updatedBy" bson:"updatedBy"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// FirStats holds the dashboard statistics response
type FirStats struct {
	TotalFIRs          int64 `json:"totalFIRs"`
	OpenFIRs           int64 `json:"openFIRs"`
	ClosedFIRs         int64 `json:"closedFIRs"`
	UnderInvestigation int64 `json:"underInvestigation"`
}
