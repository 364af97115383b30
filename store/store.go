package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/models"
)

// DeletePolicy decides what happens to a vehicle's maintenance entries when
// the vehicle itself is deleted.
type DeletePolicy int

const (
	// CascadeEntries deletes the vehicle's maintenance entries with it.
	CascadeEntries DeletePolicy = iota
	// BlockIfEntriesExist rejects the delete while entries remain.
	BlockIfEntriesExist
)

// EventKind labels a record store notification.
type EventKind string

// Record store notification kinds. Write failures arrive here rather than
// being swallowed into a log line, so the UI can offer a retry.
const (
	EventVehiclesChanged    EventKind = "vehicles_changed"
	EventMaintenanceChanged EventKind = "maintenance_changed"
	EventSelectionChanged   EventKind = "selection_changed"
	EventWriteFailed        EventKind = "write_failed"
	EventWriteDropped       EventKind = "write_dropped"
)

// Event is a single record store notification.
type Event struct {
	Kind      EventKind `json:"kind"`
	VehicleID string    `json:"vehicleId,omitempty"`
	EntryID   string    `json:"entryId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

const defaultWriteTimeout = 15 * time.Second

// RecordStore owns the in-memory session state: the vehicle and maintenance
// collections, the selected vehicle, and the derived dashboard views. Local
// mutations apply optimistically and write through to the persistence
// collaborator; a failed write-through is rolled back, reported on the event
// feed and queued for retry. All state access is serialized by one mutex.
type RecordStore struct {
	identity string
	perst    Persistence
	policy   DeletePolicy

	mu              sync.Mutex
	vehicles        []models.Vehicle
	entries         []models.MaintenanceEntry
	selectedID      string
	vehiclesLoading bool
	entriesLoading  bool

	pending      *pendingQueue
	events       chan Event
	writeTimeout time.Duration
	wg           sync.WaitGroup
}

// New creates a record store for one identity. The store stays inert until
// Run is called with that identity's subscription context.
func New(identity string, p Persistence, policy DeletePolicy) *RecordStore {
	return &RecordStore{
		identity:        identity,
		perst:           p,
		policy:          policy,
		vehiclesLoading: true,
		entriesLoading:  true,
		pending:         newPendingQueue(64),
		events:          make(chan Event, 64),
		writeTimeout:    defaultWriteTimeout,
	}
}

// Events exposes the store's notification feed. The channel is buffered and
// never blocks a mutation; a slow consumer loses events.
func (s *RecordStore) Events() <-chan Event { return s.events }

// Identity returns the identity this store is scoped to.
func (s *RecordStore) Identity() string { return s.identity }

// Loading reports whether each collection is still waiting for its first
// snapshot.
func (s *RecordStore) Loading() (vehicles, maintenance bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehiclesLoading, s.entriesLoading
}

// Run subscribes to the persistence collaborator and applies incoming
// snapshots until ctx is cancelled. A snapshot always replaces the local
// collection wholesale; when it races an in-flight optimistic mutation the
// later arrival wins.
func (s *RecordStore) Run(ctx context.Context) error {
	vehicleCh, err := s.perst.SubscribeVehicles(ctx, s.identity)
	if err != nil {
		return err
	}
	maintenanceCh, err := s.perst.SubscribeMaintenance(ctx, s.identity)
	if err != nil {
		return err
	}

	zap.S().Infow("record store subscribed", "identity", s.identity)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-vehicleCh:
			if !ok {
				vehicleCh = nil
				break
			}
			s.applyVehicleSnapshot(snapshot)
		case snapshot, ok := <-maintenanceCh:
			if !ok {
				maintenanceCh = nil
				break
			}
			s.applyMaintenanceSnapshot(snapshot)
		}
		if vehicleCh == nil && maintenanceCh == nil {
			return nil
		}
	}
}

func (s *RecordStore) applyVehicleSnapshot(snapshot []models.Vehicle) {
	s.mu.Lock()
	s.vehicles = snapshot
	s.vehiclesLoading = false
	s.reconcileSelection()
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged})
}

func (s *RecordStore) applyMaintenanceSnapshot(snapshot []models.MaintenanceEntry) {
	s.mu.Lock()
	s.entries = snapshot
	s.entriesLoading = false
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged})
}

// reconcileSelection keeps the invariant: one vehicle selected whenever the
// collection is non-empty, none otherwise. Callers hold s.mu.
func (s *RecordStore) reconcileSelection() {
	if s.selectedID != "" && s.findVehicle(s.selectedID) >= 0 {
		return
	}
	if len(s.vehicles) > 0 {
		s.selectedID = s.vehicles[0].ID
		return
	}
	s.selectedID = ""
}

// SelectVehicle sets the current selection. An id not present in the
// collection clears the selection rather than failing.
func (s *RecordStore) SelectVehicle(id string) {
	s.mu.Lock()
	if id != "" && s.findVehicle(id) >= 0 {
		s.selectedID = id
	} else {
		s.selectedID = ""
	}
	selected := s.selectedID
	s.mu.Unlock()
	s.publish(Event{Kind: EventSelectionChanged, VehicleID: selected})
}

// SelectedID returns the currently selected vehicle id, empty when none.
func (s *RecordStore) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Vehicles returns a snapshot copy of the vehicle collection.
func (s *RecordStore) Vehicles() []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out
}

// Vehicle returns one vehicle by id.
func (s *RecordStore) Vehicle(id string) (models.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findVehicle(id); i >= 0 {
		return s.vehicles[i], true
	}
	return models.Vehicle{}, false
}

// AddVehicle appends a vehicle under a temporary id and writes it through.
// The first vehicle ever added becomes the selection. Input is assumed to be
// validated by the caller.
func (s *RecordStore) AddVehicle(in models.VehicleInput) models.Vehicle {
	vehicle := models.Vehicle{
		ID:           tempID(),
		UserID:       s.identity,
		Name:         in.Name,
		Brand:        in.Brand,
		Model:        in.Model,
		Year:         in.Year,
		Mileage:      in.Mileage,
		LicensePlate: in.LicensePlate,
	}

	s.mu.Lock()
	s.vehicles = append(s.vehicles, vehicle)
	if len(s.vehicles) == 1 {
		s.selectedID = vehicle.ID
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: vehicle.ID})

	s.goWrite(func(ctx context.Context) {
		finalID, err := s.perst.WriteVehicle(ctx, s.identity, vehicle)
		if err != nil {
			s.rollbackAddVehicle(vehicle.ID)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: vehicle.ID, Error: err.Error()},
				pendingOp{kind: opWriteVehicle, vehicle: vehicle})
			return
		}
		s.confirmVehicleID(vehicle.ID, finalID)
	})
	return vehicle
}

// UpdateVehicle replaces the vehicle matching the payload's id. The id and
// owner are immutable; an unknown id is an explicit error, not a silent
// no-op.
func (s *RecordStore) UpdateVehicle(vehicle models.Vehicle) error {
	if vehicle.UserID != "" && vehicle.UserID != s.identity {
		return ErrImmutableID
	}
	vehicle.UserID = s.identity

	s.mu.Lock()
	i := s.findVehicle(vehicle.ID)
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "vehicle", ID: vehicle.ID}
	}
	prev := s.vehicles[i]
	s.vehicles[i] = vehicle
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: vehicle.ID})

	s.goWrite(func(ctx context.Context) {
		if _, err := s.perst.WriteVehicle(ctx, s.identity, vehicle); err != nil {
			s.restoreVehicle(prev)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: vehicle.ID, Error: err.Error()},
				pendingOp{kind: opWriteVehicle, vehicle: vehicle})
		}
	})
	return nil
}

// DeleteVehicle removes a vehicle according to the configured policy:
// cascade its maintenance entries, or refuse while entries remain. Deleting
// an absent id is a no-op.
func (s *RecordStore) DeleteVehicle(id string) error {
	s.mu.Lock()
	i := s.findVehicle(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	owned := 0
	for _, e := range s.entries {
		if e.VehicleID == id {
			owned++
		}
	}
	if s.policy == BlockIfEntriesExist && owned > 0 {
		s.mu.Unlock()
		return &ReferentialError{VehicleID: id, Entries: owned}
	}

	removedVehicle := s.vehicles[i]
	removedEntries := make([]models.MaintenanceEntry, 0, owned)
	s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
	if owned > 0 {
		kept := s.entries[:0]
		for _, e := range s.entries {
			if e.VehicleID == id {
				removedEntries = append(removedEntries, e)
			} else {
				kept = append(kept, e)
			}
		}
		s.entries = kept
	}
	s.reconcileSelection()
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: id})

	s.goWrite(func(ctx context.Context) {
		if err := s.perst.DeleteVehicle(ctx, s.identity, id); err != nil {
			s.restoreDeletedVehicle(removedVehicle, removedEntries)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: id, Error: err.Error()},
				pendingOp{kind: opDeleteVehicle, id: id, cascade: owned > 0})
			return
		}
		if owned > 0 {
			if err := s.perst.DeleteMaintenanceByVehicle(ctx, s.identity, id); err != nil {
				s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: id, Error: err.Error()},
					pendingOp{kind: opDeleteMaintenanceByVehicle, id: id})
			}
		}
	})
	return nil
}

// AddMaintenanceEntry appends an entry for a live vehicle. A pending invoice
// file is uploaded first and its reference attached before the record is
// written; an upload failure blocks the entry entirely. The upload honors
// ctx, so dismissing the owning form cancels it.
func (s *RecordStore) AddMaintenanceEntry(ctx context.Context, vehicleID string, in models.MaintenanceInput, invoice *InvoiceFile) (models.MaintenanceEntry, error) {
	s.mu.Lock()
	known := s.findVehicle(vehicleID) >= 0
	s.mu.Unlock()
	if !known {
		return models.MaintenanceEntry{}, &ReferentialError{VehicleID: vehicleID}
	}

	invoiceURL := in.InvoiceURL
	if invoice != nil {
		url, err := s.perst.UploadInvoice(ctx, s.identity, vehicleID, invoice.Data, invoice.Name)
		if err != nil {
			return models.MaintenanceEntry{}, &UploadError{Filename: invoice.Name, Err: err}
		}
		invoiceURL = url
	}

	entry := models.MaintenanceEntry{
		ID:         tempID(),
		UserID:     s.identity,
		VehicleID:  vehicleID,
		Date:       models.DayUTC(in.Date),
		Label:      in.Label,
		Mileage:    in.Mileage,
		Price:      in.Price,
		Garage:     in.Garage,
		InvoiceURL: invoiceURL,
	}

	s.mu.Lock()
	// Re-check: the vehicle may have been deleted while the upload ran.
	if s.findVehicle(vehicleID) < 0 {
		s.mu.Unlock()
		return models.MaintenanceEntry{}, &ReferentialError{VehicleID: vehicleID}
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: vehicleID, EntryID: entry.ID})

	s.goWrite(func(writeCtx context.Context) {
		finalID, err := s.perst.WriteMaintenance(writeCtx, s.identity, entry)
		if err != nil {
			s.rollbackAddEntry(entry.ID)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: vehicleID, EntryID: entry.ID, Error: err.Error()},
				pendingOp{kind: opWriteMaintenance, entry: entry})
			return
		}
		s.confirmEntryID(entry.ID, finalID)
	})
	return entry, nil
}

// UpdateMaintenanceEntry replaces the entry matching the payload's id,
// preserving its id, owner and vehicle. A replacement invoice follows the
// same upload-then-attach rule as creation.
func (s *RecordStore) UpdateMaintenanceEntry(ctx context.Context, entry models.MaintenanceEntry, invoice *InvoiceFile) error {
	s.mu.Lock()
	i := s.findEntry(entry.ID)
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "maintenance entry", ID: entry.ID}
	}
	prev := s.entries[i]
	s.mu.Unlock()

	if entry.VehicleID != "" && entry.VehicleID != prev.VehicleID {
		return ErrImmutableID
	}
	entry.VehicleID = prev.VehicleID
	entry.UserID = prev.UserID
	entry.Date = models.DayUTC(entry.Date)

	if invoice != nil {
		url, err := s.perst.UploadInvoice(ctx, s.identity, entry.VehicleID, invoice.Data, invoice.Name)
		if err != nil {
			return &UploadError{Filename: invoice.Name, Err: err}
		}
		entry.InvoiceURL = url
	}

	s.mu.Lock()
	i = s.findEntry(entry.ID)
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "maintenance entry", ID: entry.ID}
	}
	s.entries[i] = entry
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: entry.VehicleID, EntryID: entry.ID})

	s.goWrite(func(writeCtx context.Context) {
		if _, err := s.perst.WriteMaintenance(writeCtx, s.identity, entry); err != nil {
			s.restoreEntry(prev)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: entry.VehicleID, EntryID: entry.ID, Error: err.Error()},
				pendingOp{kind: opWriteMaintenance, entry: entry})
		}
	})
	return nil
}

// DeleteMaintenanceEntry removes the entry matching id. Deleting an absent
// id is a no-op.
func (s *RecordStore) DeleteMaintenanceEntry(id string) error {
	s.mu.Lock()
	i := s.findEntry(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: removed.VehicleID, EntryID: id})

	s.goWrite(func(ctx context.Context) {
		if err := s.perst.DeleteMaintenance(ctx, s.identity, id); err != nil {
			s.restoreEntry(removed)
			s.writeFailed(Event{Kind: EventWriteFailed, VehicleID: removed.VehicleID, EntryID: id, Error: err.Error()},
				pendingOp{kind: opDeleteMaintenance, id: id})
		}
	})
	return nil
}

// Entry returns a copy of the maintenance entry matching id.
func (s *RecordStore) Entry(id string) (models.MaintenanceEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findEntry(id); i >= 0 {
		return s.entries[i], true
	}
	return models.MaintenanceEntry{}, false
}

// FilteredEntries returns copies of the entries belonging to vehicleID,
// sorted by date descending. Entries sharing a date keep their relative
// insertion order.
func (s *RecordStore) FilteredEntries(vehicleID string) []models.MaintenanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked(vehicleID)
}

func (s *RecordStore) filteredLocked(vehicleID string) []models.MaintenanceEntry {
	out := make([]models.MaintenanceEntry, 0)
	for _, e := range s.entries {
		if e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Summary derives the dashboard totals for one vehicle: the summed price of
// its entries and the mileage of its most recent one, falling back to the
// vehicle's stored odometer reading, then to zero when the vehicle itself is
// absent.
func (s *RecordStore) Summary(vehicleID string) models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.filteredLocked(vehicleID)
	summary := models.Summary{}
	for _, e := range filtered {
		summary.TotalCost += e.Price
	}
	if len(filtered) > 0 {
		summary.LastMileage = filtered[0].Mileage
		return summary
	}
	if i := s.findVehicle(vehicleID); i >= 0 {
		summary.LastMileage = s.vehicles[i].Mileage
	}
	return summary
}

// Flush blocks until every in-flight write-through finished. Used on
// shutdown and by tests.
func (s *RecordStore) Flush() { s.wg.Wait() }

func (s *RecordStore) goWrite(write func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()
		write(ctx)
	}()
}

func (s *RecordStore) writeFailed(ev Event, op pendingOp) {
	zap.S().Errorw("write-through failed",
		"kind", op.kind,
		"error", ev.Error,
	)
	s.pending.push(op)
	s.publish(ev)
}

func (s *RecordStore) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *RecordStore) findVehicle(id string) int {
	for i, v := range s.vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore) findEntry(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore) rollbackAddVehicle(id string) {
	s.mu.Lock()
	if i := s.findVehicle(id); i >= 0 {
		s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
	}
	s.reconcileSelection()
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: id})
}

func (s *RecordStore) restoreVehicle(prev models.Vehicle) {
	s.mu.Lock()
	if i := s.findVehicle(prev.ID); i >= 0 {
		s.vehicles[i] = prev
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: prev.ID})
}

func (s *RecordStore) restoreDeletedVehicle(vehicle models.Vehicle, entries []models.MaintenanceEntry) {
	s.mu.Lock()
	if s.findVehicle(vehicle.ID) < 0 {
		s.vehicles = append(s.vehicles, vehicle)
	}
	for _, e := range entries {
		if s.findEntry(e.ID) < 0 {
			s.entries = append(s.entries, e)
		}
	}
	s.reconcileSelection()
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: vehicle.ID})
}

func (s *RecordStore) rollbackAddEntry(id string) {
	s.mu.Lock()
	var vehicleID string
	if i := s.findEntry(id); i >= 0 {
		vehicleID = s.entries[i].VehicleID
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: vehicleID, EntryID: id})
}

func (s *RecordStore) restoreEntry(prev models.MaintenanceEntry) {
	s.mu.Lock()
	if i := s.findEntry(prev.ID); i >= 0 {
		s.entries[i] = prev
	} else {
		s.entries = append(s.entries, prev)
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: prev.VehicleID, EntryID: prev.ID})
}

func (s *RecordStore) confirmVehicleID(tempID, finalID string) {
	if tempID == finalID {
		s.publish(Event{Kind: EventVehiclesChanged, VehicleID: finalID})
		return
	}
	s.mu.Lock()
	if i := s.findVehicle(tempID); i >= 0 {
		s.vehicles[i].ID = finalID
	}
	for i := range s.entries {
		if s.entries[i].VehicleID == tempID {
			s.entries[i].VehicleID = finalID
		}
	}
	if s.selectedID == tempID {
		s.selectedID = finalID
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventVehiclesChanged, VehicleID: finalID})
}

func (s *RecordStore) confirmEntryID(tempID, finalID string) {
	if tempID == finalID {
		s.publish(Event{Kind: EventMaintenanceChanged, EntryID: finalID})
		return
	}
	s.mu.Lock()
	var vehicleID string
	if i := s.findEntry(tempID); i >= 0 {
		s.entries[i].ID = finalID
		vehicleID = s.entries[i].VehicleID
	}
	s.mu.Unlock()
	s.publish(Event{Kind: EventMaintenanceChanged, VehicleID: vehicleID, EntryID: finalID})
}

const tempIDPrefix = "tmp-"

func tempID() string { return tempIDPrefix + uuid.New().String() }

// IsTempID reports whether id is a client-minted optimistic id that the
// persistence layer should replace with a final one.
func IsTempID(id string) bool { return strings.HasPrefix(id, tempIDPrefix) }
