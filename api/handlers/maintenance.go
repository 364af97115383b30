package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
)

// maxInvoiceSize caps multipart parsing at 10 MB, matching the upload widget
const maxInvoiceSize = 10 << 20

// Maintenance exported for testing purposes
type Maintenance struct {
	Store *store.RecordStore
}

// MaintenanceByVehicleHandler returns the vehicle's entries, newest first
func (m Maintenance) MaintenanceByVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	if _, ok := m.Store.Vehicle(vehicleID); !ok {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "vehicle", ID: vehicleID})
		return
	}

	entries := m.Store.FilteredEntries(vehicleID)
	if len(entries) == 0 {
		entries = []models.MaintenanceEntry{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateMaintenanceHandler records a maintenance entry for a vehicle. The body
// is either plain JSON, or multipart form data with the JSON under "entry" and
// the invoice image under "invoice".
func (m Maintenance) CreateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	in, invoice, err := decodeMaintenancePayload(r)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := in.Validate(); err != nil {
		config.ErrorStatus("maintenance entry failed validation", http.StatusUnprocessableEntity, w, err)
		return
	}

	entry, err := m.Store.AddMaintenanceEntry(r.Context(), vehicleID, in, invoice)
	if err != nil {
		writeStoreError(w, "failed to add maintenance entry", err)
		return
	}

	b, err := json.Marshal(entry)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateMaintenanceHandler replaces the mutable fields of an entry
func (m Maintenance) UpdateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["entry_id"]

	in, invoice, err := decodeMaintenancePayload(r)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := in.Validate(); err != nil {
		config.ErrorStatus("maintenance entry failed validation", http.StatusUnprocessableEntity, w, err)
		return
	}

	entry := models.MaintenanceEntry{
		ID:         entryID,
		Date:       models.DayUTC(in.Date),
		Label:      in.Label,
		Mileage:    in.Mileage,
		Price:      in.Price,
		Garage:     in.Garage,
		InvoiceURL: in.InvoiceURL,
	}

	if err := m.Store.UpdateMaintenanceEntry(r.Context(), entry, invoice); err != nil {
		writeStoreError(w, "failed to update maintenance entry", err)
		return
	}

	if stored, ok := m.Store.Entry(entryID); ok {
		entry = stored
	}

	b, err := json.Marshal(entry)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteMaintenanceHandler removes an entry, deleting twice is not an error
func (m Maintenance) DeleteMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["entry_id"]

	if err := m.Store.DeleteMaintenanceEntry(entryID); err != nil {
		writeStoreError(w, "failed to delete maintenance entry", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": "` + entryID + `"}`))
}

// decodeMaintenancePayload reads the entry from a JSON or multipart body and
// captures the invoice file when one was attached.
func decodeMaintenancePayload(r *http.Request) (models.MaintenanceInput, *store.InvoiceFile, error) {
	var in models.MaintenanceInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxInvoiceSize); err != nil {
			return in, nil, err
		}
		if err := json.Unmarshal([]byte(r.FormValue("entry")), &in); err != nil {
			return in, nil, err
		}
		file, header, err := r.FormFile("invoice")
		if err == http.ErrMissingFile {
			return in, nil, nil
		}
		if err != nil {
			return in, nil, err
		}
		zap.S().Debugf("invoice attached: %v (%v bytes)", header.Filename, header.Size)
		return in, &store.InvoiceFile{Name: header.Filename, Data: file}, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, nil, err
	}
	return in, nil, nil
}
