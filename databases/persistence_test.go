package databases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/carlogapp/carlog-api/databases"
	"github.com/carlogapp/carlog-api/databases/mocks"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
)

const testIdentity = "jean.dupont@example.com"

func newPersistence() (*databases.MongoPersistence, *mocks.VehicleDatabase, *mocks.MaintenanceDatabase, *mocks.InvoiceUploader) {
	vehicles := &mocks.VehicleDatabase{}
	maintenance := &mocks.MaintenanceDatabase{}
	uploader := &mocks.InvoiceUploader{}
	p := &databases.MongoPersistence{
		Vehicles:    vehicles,
		Maintenance: maintenance,
		Uploader:    uploader,
	}
	return p, vehicles, maintenance, uploader
}

func TestMongoPersistence_WriteVehicle_Insert(t *testing.T) {
	p, vehicles, _, _ := newPersistence()

	vehicles.
		On("InsertOne", mock.Anything, mock.MatchedBy(func(v models.Vehicle) bool {
			return v.UserID == testIdentity && !store.IsTempID(v.ID) && v.ID != ""
		})).
		Return(nil, nil)

	id, err := p.WriteVehicle(context.Background(), testIdentity, models.Vehicle{
		ID:   "tmp-9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		Name: "Daily driver",
	})

	assert.NoError(t, err)
	assert.False(t, store.IsTempID(id))
	assert.Len(t, id, 24)
	vehicles.AssertExpectations(t)
}

func TestMongoPersistence_WriteVehicle_Replace(t *testing.T) {
	p, vehicles, _, _ := newPersistence()

	vehicle := models.Vehicle{ID: "651aa2f0c3e9d74b8f0a1b2c", Name: "Daily driver"}

	vehicles.
		On("ReplaceOne", mock.Anything, bson.M{"_id": vehicle.ID, "userId": testIdentity}, mock.MatchedBy(func(v models.Vehicle) bool {
			return v.ID == vehicle.ID && v.UserID == testIdentity
		})).
		Return(nil)

	id, err := p.WriteVehicle(context.Background(), testIdentity, vehicle)

	assert.NoError(t, err)
	assert.Equal(t, vehicle.ID, id)
	vehicles.AssertExpectations(t)
}

func TestMongoPersistence_WriteVehicle_InsertError(t *testing.T) {
	p, vehicles, _, _ := newPersistence()

	vehicles.
		On("InsertOne", mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-error"))

	id, err := p.WriteVehicle(context.Background(), testIdentity, models.Vehicle{})

	assert.EqualError(t, err, "mocked-error")
	assert.Empty(t, id)
}

func TestMongoPersistence_WriteMaintenance_Insert(t *testing.T) {
	p, _, maintenance, _ := newPersistence()

	maintenance.
		On("InsertOne", mock.Anything, mock.MatchedBy(func(e models.MaintenanceEntry) bool {
			return e.UserID == testIdentity && !store.IsTempID(e.ID)
		})).
		Return(nil, nil)

	id, err := p.WriteMaintenance(context.Background(), testIdentity, models.MaintenanceEntry{
		ID:        "tmp-0c7f1f77-bcf8-46b9-8c99-253071b71bb7",
		VehicleID: "651aa2f0c3e9d74b8f0a1b2c",
		Label:     "Oil change",
	})

	assert.NoError(t, err)
	assert.Len(t, id, 24)
	maintenance.AssertExpectations(t)
}

func TestMongoPersistence_DeleteVehicle(t *testing.T) {
	p, vehicles, _, _ := newPersistence()

	vehicles.
		On("DeleteOne", mock.Anything, bson.M{"_id": "651aa2f0c3e9d74b8f0a1b2c", "userId": testIdentity}).
		Return(nil)

	assert.NoError(t, p.DeleteVehicle(context.Background(), testIdentity, "651aa2f0c3e9d74b8f0a1b2c"))
	vehicles.AssertExpectations(t)
}

func TestMongoPersistence_DeleteMaintenanceByVehicle(t *testing.T) {
	p, _, maintenance, _ := newPersistence()

	maintenance.
		On("DeleteMany", mock.Anything, bson.M{"userId": testIdentity, "vehicleId": "651aa2f0c3e9d74b8f0a1b2c"}).
		Return(int64(4), nil)

	err := p.DeleteMaintenanceByVehicle(context.Background(), testIdentity, "651aa2f0c3e9d74b8f0a1b2c")

	assert.NoError(t, err)
	maintenance.AssertExpectations(t)
}

func TestMongoPersistence_UploadInvoice(t *testing.T) {
	p, _, _, uploader := newPersistence()

	file := strings.NewReader("%PDF-1.4 fake invoice")

	uploader.
		On("Upload", mock.Anything, file, mock.MatchedBy(func(publicID string) bool {
			return strings.HasPrefix(publicID, "651aa2f0c3e9d74b8f0a1b2c/")
		})).
		Return("https://res.cloudinary.com/carlog/invoice.pdf", nil)

	url, err := p.UploadInvoice(context.Background(), testIdentity, "651aa2f0c3e9d74b8f0a1b2c", file, "invoice.pdf")

	assert.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/carlog/invoice.pdf", url)
	uploader.AssertExpectations(t)
}

func TestMongoPersistence_UploadInvoice_Error(t *testing.T) {
	p, _, _, uploader := newPersistence()

	uploader.
		On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("mocked-error"))

	url, err := p.UploadInvoice(context.Background(), testIdentity, "v1", strings.NewReader("x"), "invoice.jpg")

	assert.EqualError(t, err, "mocked-error")
	assert.Empty(t, url)
}

func TestMongoPersistence_SubscribeVehicles_PollingFallback(t *testing.T) {
	p, vehicles, _, _ := newPersistence()

	vehicles.
		On("Watch", mock.Anything, mock.Anything).
		Return(nil, errors.New("change streams require a replica set"))
	vehicles.
		On("Find", mock.Anything, bson.M{"userId": testIdentity}).
		Return([]models.Vehicle{{ID: "v1", UserID: testIdentity, Name: "Daily driver"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := p.SubscribeVehicles(ctx, testIdentity)
	assert.NoError(t, err)

	select {
	case snapshot := <-out:
		assert.Len(t, snapshot, 1)
		assert.Equal(t, "v1", snapshot[0].ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the initial snapshot")
	}

	cancel()

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the subscription to close")
	}
}

func TestMongoPersistence_SubscribeMaintenance_ChangeStream(t *testing.T) {
	p, _, maintenance, _ := newPersistence()

	stream := &mocks.StreamHelper{}
	stream.On("Next", mock.Anything).Return(false)
	stream.On("Close", mock.Anything).Return(nil)

	maintenance.
		On("Watch", mock.Anything, mock.Anything).
		Return(stream, nil)
	maintenance.
		On("Find", mock.Anything, bson.M{"userId": testIdentity}, mock.Anything).
		Return([]models.MaintenanceEntry{{ID: "m1", VehicleID: "v1"}}, nil)

	out, err := p.SubscribeMaintenance(context.Background(), testIdentity)
	assert.NoError(t, err)

	select {
	case snapshot := <-out:
		assert.Len(t, snapshot, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the initial snapshot")
	}

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the stream to close")
	}
}
