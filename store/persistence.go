package store

import (
	"context"
	"io"

	"github.com/carlogapp/carlog-api/models"
)

//go generate: mockery --name Persistence

// Persistence is the contract the record store expects from its storage
// binding. Every call is scoped to one identity; the store never reaches for
// an ambient user. Subscriptions deliver full collection snapshots and stop
// when the given context is cancelled.
type Persistence interface {
	SubscribeVehicles(ctx context.Context, identity string) (<-chan []models.Vehicle, error)
	SubscribeMaintenance(ctx context.Context, identity string) (<-chan []models.MaintenanceEntry, error)

	// WriteVehicle upserts a vehicle and returns its persisted id. A
	// vehicle carrying a temporary id gets its final id assigned here.
	WriteVehicle(ctx context.Context, identity string, vehicle models.Vehicle) (string, error)
	DeleteVehicle(ctx context.Context, identity string, id string) error

	WriteMaintenance(ctx context.Context, identity string, entry models.MaintenanceEntry) (string, error)
	DeleteMaintenance(ctx context.Context, identity string, id string) error
	DeleteMaintenanceByVehicle(ctx context.Context, identity string, vehicleID string) error

	// UploadInvoice stores an invoice image and returns its reference URL.
	UploadInvoice(ctx context.Context, identity string, vehicleID string, file io.Reader, filename string) (string, error)
}

// InvoiceFile is a pending invoice image attached to a maintenance
// submission. The upload must complete before the entry record is written.
type InvoiceFile struct {
	Name string
	Data io.Reader
}
