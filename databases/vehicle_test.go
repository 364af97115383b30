package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/databases"
	"github.com/carlogapp/carlog-api/databases/mocks"
	"github.com/carlogapp/carlog-api/models"
)

func TestNewVehicleDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	vehicleDB := databases.NewVehicleDatabase(db)

	assert.NotEmpty(t, vehicleDB)
}

func TestVehicleDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Vehicle)
		(*arg).ID = "mocked-vehicle"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "vehicles").Return(collectionHelper)

	vehicleDba := databases.NewVehicleDatabase(dbHelper)

	vehicle, err := vehicleDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, vehicle)
	assert.EqualError(t, err, "mocked-error")

	vehicle, err = vehicleDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &models.Vehicle{ID: "mocked-vehicle"}, vehicle)
	assert.NoError(t, err)
}

func TestVehicleDatabase_Find(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var crHelperErr databases.CursorHelper
	var crHelperCorrect databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	crHelperErr = &mocks.CursorHelper{}
	crHelperCorrect = &mocks.CursorHelper{}

	crHelperErr.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	crHelperCorrect.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Vehicle)
		*arg = []models.Vehicle{{ID: "mocked-vehicle"}}
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(crHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(crHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "vehicles").Return(collectionHelper)

	vehicleDba := databases.NewVehicleDatabase(dbHelper)

	vehicles, err := vehicleDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, vehicles)
	assert.EqualError(t, err, "mocked-error")

	vehicles, err = vehicleDba.Find(context.Background(), bson.M{"error": false})

	assert.Equal(t, []models.Vehicle{{ID: "mocked-vehicle"}}, vehicles)
	assert.NoError(t, err)
}

func TestVehicleDatabase_InsertOne(t *testing.T) {

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	iorHelper := &mocks.InsertOneResultHelper{}

	iorHelper.On("Decode").Return("mocked-id")

	collectionHelper.
		On("InsertOne", context.Background(), mock.Anything).
		Return(iorHelper, nil)

	dbHelper.On("Collection", "vehicles").Return(collectionHelper)

	vehicleDba := databases.NewVehicleDatabase(dbHelper)

	id, err := vehicleDba.InsertOne(context.Background(), models.Vehicle{ID: "mocked-id"})

	assert.NoError(t, err)
	assert.Equal(t, "mocked-id", id)
}

func TestVehicleDatabase_DeleteOne(t *testing.T) {

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("DeleteOne", context.Background(), bson.M{"_id": "gone"}).
		Return(nil)

	dbHelper.On("Collection", "vehicles").Return(collectionHelper)

	vehicleDba := databases.NewVehicleDatabase(dbHelper)

	assert.NoError(t, vehicleDba.DeleteOne(context.Background(), bson.M{"_id": "gone"}))
}
