package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/firtrack/fir-tracking-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.User, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.User, error)
	InsertOne(ctx context.Context, user models.User, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (c *userDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.User, error) {
	user := &models.User{}
	err := c.db.Collection(userName).FindOne(ctx, filter, opts...).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	var users []models.User
	cr, err := c.db.Collection(userName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	if err := cr.Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *userDatabase) InsertOne(ctx context.Context, user models.User, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(userName).InsertOne(ctx, user, opts...)
}

func (c *userDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(userName).CountDocuments(ctx, filter, opts...)
}
