package databases

//go generate: mockery --name MaintenanceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carlogapp/carlog-api/models"
)

const maintenanceName = "maintenance"

// MaintenanceDatabase contains the methods to use with the maintenance database
type MaintenanceDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.MaintenanceEntry, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.MaintenanceEntry, error)
	InsertOne(ctx context.Context, entry models.MaintenanceEntry) (interface{}, error)
	ReplaceOne(ctx context.Context, filter interface{}, entry models.MaintenanceEntry) error
	DeleteOne(ctx context.Context, filter interface{}) error
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	Watch(ctx context.Context, pipeline interface{}) (StreamHelper, error)
}

type maintenanceDatabase struct {
	db DatabaseHelper
}

// NewMaintenanceDatabase initializes a new instance of maintenance database with the provided db connection
func NewMaintenanceDatabase(db DatabaseHelper) MaintenanceDatabase {
	return &maintenanceDatabase{
		db: db,
	}
}

func (c *maintenanceDatabase) FindOne(ctx context.Context, filter interface{}) (*models.MaintenanceEntry, error) {
	entry := &models.MaintenanceEntry{}
	err := c.db.Collection(maintenanceName).FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (c *maintenanceDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.MaintenanceEntry, error) {
	var entries []models.MaintenanceEntry
	err := c.db.Collection(maintenanceName).Find(ctx, filter, opts...).Decode(&entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *maintenanceDatabase) InsertOne(ctx context.Context, entry models.MaintenanceEntry) (interface{}, error) {
	res, err := c.db.Collection(maintenanceName).InsertOne(ctx, entry)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *maintenanceDatabase) ReplaceOne(ctx context.Context, filter interface{}, entry models.MaintenanceEntry) error {
	return c.db.Collection(maintenanceName).ReplaceOne(ctx, filter, entry)
}

func (c *maintenanceDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return c.db.Collection(maintenanceName).DeleteOne(ctx, filter)
}

func (c *maintenanceDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(maintenanceName).DeleteMany(ctx, filter)
}

func (c *maintenanceDatabase) Watch(ctx context.Context, pipeline interface{}) (StreamHelper, error) {
	return c.db.Collection(maintenanceName).Watch(ctx, pipeline)
}
