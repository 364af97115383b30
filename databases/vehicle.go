package databases

//go generate: mockery --name VehicleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carlogapp/carlog-api/models"
)

const vehicleName = "vehicles"

// VehicleDatabase contains the methods to use with the vehicle database
type VehicleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error)
	InsertOne(ctx context.Context, vehicle models.Vehicle) (interface{}, error)
	ReplaceOne(ctx context.Context, filter interface{}, vehicle models.Vehicle) error
	DeleteOne(ctx context.Context, filter interface{}) error
	Watch(ctx context.Context, pipeline interface{}) (StreamHelper, error)
}

type vehicleDatabase struct {
	db DatabaseHelper
}

// NewVehicleDatabase initializes a new instance of vehicle database with the provided db connection
func NewVehicleDatabase(db DatabaseHelper) VehicleDatabase {
	return &vehicleDatabase{
		db: db,
	}
}

func (c *vehicleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	err := c.db.Collection(vehicleName).FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (c *vehicleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.db.Collection(vehicleName).Find(ctx, filter, opts...).Decode(&vehicles)
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *vehicleDatabase) InsertOne(ctx context.Context, vehicle models.Vehicle) (interface{}, error) {
	res, err := c.db.Collection(vehicleName).InsertOne(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	return res.Decode(), nil
}

func (c *vehicleDatabase) ReplaceOne(ctx context.Context, filter interface{}, vehicle models.Vehicle) error {
	return c.db.Collection(vehicleName).ReplaceOne(ctx, filter, vehicle)
}

func (c *vehicleDatabase) DeleteOne(ctx context.Context, filter interface{}) error {
	return c.db.Collection(vehicleName).DeleteOne(ctx, filter)
}

func (c *vehicleDatabase) Watch(ctx context.Context, pipeline interface{}) (StreamHelper, error) {
	return c.db.Collection(vehicleName).Watch(ctx, pipeline)
}
