package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
)

// Vehicle exported for testing purposes
type Vehicle struct {
	Store *store.RecordStore
}

// VehicleHandler returns all vehicles
func (v Vehicle) VehicleHandler(w http.ResponseWriter, r *http.Request) {
	dbResp := v.Store.Vehicles()
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Vehicle{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VehicleByIDHandler returns a vehicle by ID
func (v Vehicle) VehicleByIDHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	zap.S().Debugf("vehicle_id: %v", vehicleID)

	vehicle, ok := v.Store.Vehicle(vehicleID)
	if !ok {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "vehicle", ID: vehicleID})
		return
	}

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateVehicleHandler adds a vehicle and confirms it to persistence in the background
func (v Vehicle) CreateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := in.Validate(); err != nil {
		config.ErrorStatus("vehicle failed validation", http.StatusUnprocessableEntity, w, err)
		return
	}

	vehicle := v.Store.AddVehicle(in)

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateVehicleHandler replaces the mutable fields of a vehicle
func (v Vehicle) UpdateVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	var in models.VehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := in.Validate(); err != nil {
		config.ErrorStatus("vehicle failed validation", http.StatusUnprocessableEntity, w, err)
		return
	}

	vehicle, ok := v.Store.Vehicle(vehicleID)
	if !ok {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "vehicle", ID: vehicleID})
		return
	}
	vehicle.Name = in.Name
	vehicle.Brand = in.Brand
	vehicle.Model = in.Model
	vehicle.Year = in.Year
	vehicle.Mileage = in.Mileage
	vehicle.LicensePlate = in.LicensePlate

	if err := v.Store.UpdateVehicle(vehicle); err != nil {
		writeStoreError(w, "failed to update vehicle", err)
		return
	}

	b, err := json.Marshal(vehicle)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteVehicleHandler removes a vehicle, subject to the configured delete policy
func (v Vehicle) DeleteVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	if err := v.Store.DeleteVehicle(vehicleID); err != nil {
		writeStoreError(w, "failed to delete vehicle", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": "` + vehicleID + `"}`))
}

// SelectVehicleHandler moves the selection, an unknown id clears it
func (v Vehicle) SelectVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	v.Store.SelectVehicle(vehicleID)

	b, err := json.Marshal(map[string]string{"selectedVehicleId": v.Store.SelectedID()})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SummaryHandler returns the derived totals for one vehicle
func (v Vehicle) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	if _, ok := v.Store.Vehicle(vehicleID); !ok {
		config.ErrorStatus("failed to get vehicle by ID", http.StatusNotFound, w, &store.NotFoundError{Kind: "vehicle", ID: vehicleID})
		return
	}

	b, err := json.Marshal(v.Store.Summary(vehicleID))
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// writeStoreError maps record store errors to their http status
func writeStoreError(w http.ResponseWriter, message string, err error) {
	var notFound *store.NotFoundError
	var referential *store.ReferentialError
	var upload *store.UploadError
	switch {
	case errors.As(err, &notFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.As(err, &referential):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	case errors.Is(err, store.ErrImmutableID):
		config.ErrorStatus(message, http.StatusUnprocessableEntity, w, err)
	case errors.As(err, &upload):
		config.ErrorStatus(message, http.StatusBadGateway, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}
