package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
	"github.com/carlogapp/carlog-api/store/mocks"
)

const testIdentity = "jean.dupont@example.com"

func TestFlushPendingWritesRetriesQueuedOps(t *testing.T) {
	p := &mocks.Persistence{}
	p.On("WriteVehicle", mock.Anything, testIdentity, mock.Anything).
		Return("", errors.New("mongo down")).Once()
	p.On("WriteVehicle", mock.Anything, testIdentity, mock.Anything).
		Return("veh-1", nil)

	s := store.New(testIdentity, p, store.CascadeEntries)
	sched := NewScheduler(s, &config.Config{})

	s.AddVehicle(models.VehicleInput{
		Name:         "Daily driver",
		Brand:        "Renault",
		Model:        "Clio V",
		Year:         2021,
		Mileage:      42000,
		LicensePlate: "AB-123-CD",
	})
	s.Flush()
	assert.Equal(t, 1, s.PendingWrites())

	sched.flushPendingWrites()

	assert.Equal(t, 0, s.PendingWrites())
	p.AssertExpectations(t)
}

func TestFlushPendingWritesNoopWhenQueueEmpty(t *testing.T) {
	p := &mocks.Persistence{}
	s := store.New(testIdentity, p, store.CascadeEntries)
	sched := NewScheduler(s, &config.Config{})

	// no persistence calls expected
	sched.flushPendingWrites()
	p.AssertExpectations(t)
}

func TestLastServiceUsesNewestEntry(t *testing.T) {
	p := &mocks.Persistence{}
	p.On("WriteVehicle", mock.Anything, testIdentity, mock.Anything).Return("veh-1", nil)
	p.On("WriteMaintenance", mock.Anything, testIdentity, mock.Anything).Return("ent-1", nil)

	s := store.New(testIdentity, p, store.CascadeEntries)
	sched := NewScheduler(s, &config.Config{})

	s.AddVehicle(models.VehicleInput{
		Name:         "Daily driver",
		Brand:        "Renault",
		Model:        "Clio V",
		Year:         2021,
		Mileage:      42000,
		LicensePlate: "AB-123-CD",
	})
	s.Flush()
	vehicle, ok := s.Vehicle("veh-1")
	assert.True(t, ok)

	serviceDay := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.AddMaintenanceEntry(context.Background(), vehicle.ID, models.MaintenanceInput{
		Date:    serviceDay,
		Label:   "Oil change",
		Mileage: 42500,
		Price:   120,
		Garage:  "Garage Central",
	}, nil)
	assert.NoError(t, err)
	s.Flush()

	last, mileage := sched.lastService(vehicle)
	assert.Equal(t, serviceDay, last)
	assert.Equal(t, 42500, mileage)
}

func TestLastServiceFallsBackToVehicleMileage(t *testing.T) {
	p := &mocks.Persistence{}
	s := store.New(testIdentity, p, store.CascadeEntries)
	sched := NewScheduler(s, &config.Config{})

	vehicle := models.Vehicle{ID: "veh-1", Mileage: 42000}

	last, mileage := sched.lastService(vehicle)
	assert.True(t, last.IsZero())
	assert.Equal(t, 42000, mileage)
}

func TestShouldRemindHonorsCooldown(t *testing.T) {
	p := &mocks.Persistence{}
	s := store.New(testIdentity, p, store.CascadeEntries)
	sched := NewScheduler(s, &config.Config{})

	now := time.Now()
	assert.True(t, sched.shouldRemind("veh-1", now))

	sched.markReminded("veh-1", now)
	assert.False(t, sched.shouldRemind("veh-1", now.Add(24*time.Hour)))
	assert.True(t, sched.shouldRemind("veh-1", now.Add(31*24*time.Hour)))
}
