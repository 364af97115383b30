package databases

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
)

// pollInterval is the snapshot cadence when change streams are unavailable
// (standalone mongod without a replica set).
const pollInterval = 15 * time.Second

// MongoPersistence binds the record store's persistence contract to mongo
// collections and Cloudinary blob storage. Subscriptions prefer change
// streams and fall back to polling.
type MongoPersistence struct {
	Vehicles    VehicleDatabase
	Maintenance MaintenanceDatabase
	Uploader    InvoiceUploader
}

// NewMongoPersistence wires the collection DAOs and the invoice uploader
// into a store.Persistence implementation.
func NewMongoPersistence(db DatabaseHelper, uploader InvoiceUploader) *MongoPersistence {
	return &MongoPersistence{
		Vehicles:    NewVehicleDatabase(db),
		Maintenance: NewMaintenanceDatabase(db),
		Uploader:    uploader,
	}
}

var _ store.Persistence = (*MongoPersistence)(nil)

// SubscribeVehicles emits the identity's vehicle collection snapshot on
// every change until ctx is cancelled.
func (p *MongoPersistence) SubscribeVehicles(ctx context.Context, identity string) (<-chan []models.Vehicle, error) {
	out := make(chan []models.Vehicle, 1)
	stream, err := p.Vehicles.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		zap.S().Warnw("vehicle change stream unavailable, polling instead", "error", err)
		stream = nil
	}

	go func() {
		defer close(out)
		p.emitVehicles(ctx, identity, out)
		if stream != nil {
			defer stream.Close(context.Background())
			for stream.Next(ctx) {
				p.emitVehicles(ctx, identity, out)
			}
			return
		}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.emitVehicles(ctx, identity, out)
			}
		}
	}()
	return out, nil
}

// SubscribeMaintenance emits the identity's maintenance collection snapshot,
// ordered by event date descending, on every change until ctx is cancelled.
func (p *MongoPersistence) SubscribeMaintenance(ctx context.Context, identity string) (<-chan []models.MaintenanceEntry, error) {
	out := make(chan []models.MaintenanceEntry, 1)
	stream, err := p.Maintenance.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		zap.S().Warnw("maintenance change stream unavailable, polling instead", "error", err)
		stream = nil
	}

	go func() {
		defer close(out)
		p.emitMaintenance(ctx, identity, out)
		if stream != nil {
			defer stream.Close(context.Background())
			for stream.Next(ctx) {
				p.emitMaintenance(ctx, identity, out)
			}
			return
		}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.emitMaintenance(ctx, identity, out)
			}
		}
	}()
	return out, nil
}

func (p *MongoPersistence) emitVehicles(ctx context.Context, identity string, out chan []models.Vehicle) {
	vehicles, err := p.Vehicles.Find(ctx, bson.M{"userId": identity})
	if err != nil {
		if ctx.Err() == nil {
			zap.S().Errorw("failed to load vehicle snapshot", "error", err)
		}
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	// Latest snapshot wins; a stale unread one is replaced.
	for {
		select {
		case out <- vehicles:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (p *MongoPersistence) emitMaintenance(ctx context.Context, identity string, out chan []models.MaintenanceEntry) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	entries, err := p.Maintenance.Find(ctx, bson.M{"userId": identity}, opts)
	if err != nil {
		if ctx.Err() == nil {
			zap.S().Errorw("failed to load maintenance snapshot", "error", err)
		}
		return
	}
	if entries == nil {
		entries = []models.MaintenanceEntry{}
	}
	for {
		select {
		case out <- entries:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// WriteVehicle inserts a vehicle under a freshly assigned id when it arrives
// with a temporary one, and replaces the stored document otherwise.
func (p *MongoPersistence) WriteVehicle(ctx context.Context, identity string, vehicle models.Vehicle) (string, error) {
	vehicle.UserID = identity
	if vehicle.ID == "" || store.IsTempID(vehicle.ID) {
		vehicle.ID = primitive.NewObjectID().Hex()
		if _, err := p.Vehicles.InsertOne(ctx, vehicle); err != nil {
			return "", err
		}
		return vehicle.ID, nil
	}
	if err := p.Vehicles.ReplaceOne(ctx, bson.M{"_id": vehicle.ID, "userId": identity}, vehicle); err != nil {
		return "", err
	}
	return vehicle.ID, nil
}

// DeleteVehicle removes one vehicle document.
func (p *MongoPersistence) DeleteVehicle(ctx context.Context, identity string, id string) error {
	return p.Vehicles.DeleteOne(ctx, bson.M{"_id": id, "userId": identity})
}

// WriteMaintenance inserts or replaces a maintenance entry, assigning the
// final id for temporary ones.
func (p *MongoPersistence) WriteMaintenance(ctx context.Context, identity string, entry models.MaintenanceEntry) (string, error) {
	entry.UserID = identity
	if entry.ID == "" || store.IsTempID(entry.ID) {
		entry.ID = primitive.NewObjectID().Hex()
		if _, err := p.Maintenance.InsertOne(ctx, entry); err != nil {
			return "", err
		}
		return entry.ID, nil
	}
	if err := p.Maintenance.ReplaceOne(ctx, bson.M{"_id": entry.ID, "userId": identity}, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// DeleteMaintenance removes one maintenance entry document.
func (p *MongoPersistence) DeleteMaintenance(ctx context.Context, identity string, id string) error {
	return p.Maintenance.DeleteOne(ctx, bson.M{"_id": id, "userId": identity})
}

// DeleteMaintenanceByVehicle removes every entry owned by one vehicle.
func (p *MongoPersistence) DeleteMaintenanceByVehicle(ctx context.Context, identity string, vehicleID string) error {
	deleted, err := p.Maintenance.DeleteMany(ctx, bson.M{"userId": identity, "vehicleId": vehicleID})
	if err != nil {
		return err
	}
	zap.S().Debugw("cascade deleted maintenance entries",
		"vehicleId", vehicleID,
		"deleted", deleted,
	)
	return nil
}

// UploadInvoice stores the invoice image and returns its reference URL.
func (p *MongoPersistence) UploadInvoice(ctx context.Context, identity string, vehicleID string, file io.Reader, filename string) (string, error) {
	publicID := fmt.Sprintf("%s/%s", vehicleID, uuid.New().String())
	url, err := p.Uploader.Upload(ctx, file, publicID)
	if err != nil {
		return "", err
	}
	zap.S().Debugw("invoice uploaded",
		"vehicleId", vehicleID,
		"filename", filename,
		"url", url,
	)
	return url, nil
}
