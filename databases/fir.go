package databases

// go generate: mockery --name FirDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/firtrack/fir-tracking-api/models"
)

const firName = "firs"

// FirDatabase contains the methods to use with the fir database
type FirDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.FIR, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.FIR, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, fir models.FIR, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	ReplaceOne(ctx context.Context, filter interface{}, fir models.FIR, opts ...*options.ReplaceOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type firDatabase struct {
	db DatabaseHelper
}

// NewFirDatabase initializes a new instance of fir database with the provided db connection
func NewFirDatabase(db DatabaseHelper) FirDatabase {
	return &firDatabase{
		db: db,
	}
}

func (c *firDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.FIR, error) {
	fir := &models.FIR{}
	err := c.db.Collection(firName).FindOne(ctx, filter, opts...).Decode(&fir)
	if err != nil {
		return nil, err
	}
	return fir, nil
}

func (c *firDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FIR, error) {
	var firs []models.FIR
	cr, err := c.db.Collection(firName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	if err := cr.Decode(&firs); err != nil {
		return nil, err
	}
	return firs, nil
}

func (c *firDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := c.db.Collection(firName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *firDatabase) InsertOne(ctx context.Context, fir models.FIR, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(firName).InsertOne(ctx, fir, opts...)
}

func (c *firDatabase) ReplaceOne(ctx context.Context, filter interface{}, fir models.FIR, opts ...*options.ReplaceOptions) error {
	return c.db.Collection(firName).ReplaceOne(ctx, filter, fir, opts...)
}

func (c *firDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	err := c.db.Collection(firName).DeleteOne(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return nil
}
