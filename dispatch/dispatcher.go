package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/firtrack/fir-tracking-api/databases"
	"github.com/firtrack/fir-tracking-api/lifecycle"
	"github.com/firtrack/fir-tracking-api/models"
)

// Event names delivered over the channel transport
const (
	EventFirCreated     = "fir-created"
	EventFirUpdated     = "fir-updated"
	EventFirListUpdated = "fir-list-updated"
	EventFirRemoved     = "fir-removed"
	EventFirListRemoved = "fir-list-removed"
)

// Dispatcher is the single choke point for every state-changing FIR
// operation: it applies the lifecycle engine, persists the result, then fans
// the event out. An event is never published before the state it describes is
// durable.
type Dispatcher struct {
	DB        databases.FirDatabase
	Registry  *Registry
	Engine    *lifecycle.Engine
	Numbering *lifecycle.Numbering

	// serializes count-then-generate-number with the insert so two
	// concurrent creates cannot observe the same count
	createMu sync.Mutex
}

// NewDispatcher wires a dispatcher over the fir collection and a registry
func NewDispatcher(db databases.FirDatabase, registry *Registry) *Dispatcher {
	return &Dispatcher{
		DB:        db,
		Registry:  registry,
		Engine:    lifecycle.NewEngine(),
		Numbering: lifecycle.NewNumbering(firCounter{db: db}),
	}
}

// File creates a new FIR for the client and broadcasts fir-created. No
// case-scope event is published: no subscriber can pre-exist the record.
func (d *Dispatcher) File(ctx context.Context, client models.User, req lifecycle.FileRequest) (*models.FIR, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d.createMu.Lock()
	defer d.createMu.Unlock()

	firNumber, err := d.Numbering.Next(ctx)
	if err != nil {
		return nil, err
	}

	fir, err := d.Engine.FileCase(client, req, firNumber)
	if err != nil {
		return nil, err
	}

	if _, err := d.DB.InsertOne(ctx, fir); err != nil {
		return nil, err
	}

	d.Registry.Broadcast(EventFirCreated, fir)
	return &fir, nil
}

// Update applies a sparse admin change set to an existing FIR, persists it,
// then publishes to the case scope and the global scope, in that order.
func (d *Dispatcher) Update(ctx context.Context, actor models.User, id primitive.ObjectID, change lifecycle.ChangeSet) (*models.FIR, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q may not update a FIR", lifecycle.ErrUnauthorized, actor.Role)
	}

	existing, err := d.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := d.Engine.ApplyUpdate(*existing, change, actor.Name)
	if err != nil {
		return nil, err
	}

	if err := d.DB.ReplaceOne(ctx, bson.M{"_id": id}, updated); err != nil {
		return nil, err
	}

	d.Registry.PublishToCase(id.Hex(), EventFirUpdated, updated)
	d.Registry.Broadcast(EventFirListUpdated, updated)
	return &updated, nil
}

// Remove deletes a FIR. Terminal and irreversible; subscribers of the case
// scope and the dashboard are told the record is gone.
func (d *Dispatcher) Remove(ctx context.Context, actor models.User, id primitive.ObjectID) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: role %q may not remove a FIR", lifecycle.ErrUnauthorized, actor.Role)
	}

	existing, err := d.findByID(ctx, id)
	if err != nil {
		return err
	}

	if err := d.DB.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}

	d.Registry.PublishToCase(id.Hex(), EventFirRemoved, existing)
	d.Registry.Broadcast(EventFirListRemoved, existing)
	return nil
}

func (d *Dispatcher) findByID(ctx context.Context, id primitive.ObjectID) (*models.FIR, error) {
	fir, err := d.DB.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", lifecycle.ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return fir, nil
}

// firCounter adapts the fir collection to the numbering service
type firCounter struct {
	db databases.FirDatabase
}

func (c firCounter) CountAll(ctx context.Context) (int64, error) {
	return c.db.CountDocuments(ctx, bson.M{})
}

func (c firCounter) NumberExists(ctx context.Context, firNumber string) (bool, error) {
	_, err := c.db.FindOne(ctx, bson.M{"firNumber": firNumber})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
