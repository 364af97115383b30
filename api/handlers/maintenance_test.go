package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
)

func TestMaintenanceByVehicleHandlerSortedNewestFirst(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}
	vehicle := seedVehicle(t, s, "Daily driver")

	for _, e := range []struct {
		day   string
		label string
	}{
		{"2024-01-15", "Oil change"},
		{"2024-06-02", "Brake pads"},
		{"2023-11-20", "Tires"},
	} {
		_, err := s.AddMaintenanceEntry(context.Background(), vehicle.ID, models.MaintenanceInput{
			Date:    mustParseDay(t, e.day),
			Label:   e.label,
			Mileage: 42000,
			Price:   100,
			Garage:  "Garage Central",
		}, nil)
		assert.NoError(t, err)
	}
	s.Flush()

	req := httptest.NewRequest("GET", "/api/v1/vehicle/"+url.PathEscape(vehicle.ID)+"/maintenance", nil)
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vehicle.ID})
	rr := httptest.NewRecorder()
	m.MaintenanceByVehicleHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var entries []models.MaintenanceEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)
	assert.Equal(t, "Brake pads", entries[0].Label)
	assert.Equal(t, "Oil change", entries[1].Label)
	assert.Equal(t, "Tires", entries[2].Label)
}

func TestCreateMaintenanceHandlerJSON(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}
	vehicle := seedVehicle(t, s, "Daily driver")

	body := `{"date":"2024-03-01T00:00:00Z","label":"Oil change","mileage":42500,"price":120.5,"garage":"Garage Central"}`
	req := httptest.NewRequest("POST", "/api/v1/vehicle/"+url.PathEscape(vehicle.ID)+"/maintenance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vehicle.ID})
	rr := httptest.NewRecorder()
	m.CreateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.MaintenanceEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Oil change", created.Label)
	assert.Equal(t, vehicle.ID, created.VehicleID)
	assert.True(t, store.IsTempID(created.ID))

	s.Flush()
	_, ok := s.Entry("ent-Oil change")
	assert.True(t, ok)
}

func TestCreateMaintenanceHandlerValidationFailure(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}
	vehicle := seedVehicle(t, s, "Daily driver")

	body := `{"date":"2024-03-01T00:00:00Z","label":"O","mileage":42500,"price":120.5,"garage":"Garage Central"}`
	req := httptest.NewRequest("POST", "/api/v1/vehicle/"+url.PathEscape(vehicle.ID)+"/maintenance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vehicle.ID})
	rr := httptest.NewRecorder()
	m.CreateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "label")
	assert.Empty(t, s.FilteredEntries(vehicle.ID))
}

func TestCreateMaintenanceHandlerUnknownVehicle(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}

	body := `{"date":"2024-03-01T00:00:00Z","label":"Oil change","mileage":42500,"price":120.5,"garage":"Garage Central"}`
	req := httptest.NewRequest("POST", "/api/v1/vehicle/nope/maintenance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": "nope"})
	rr := httptest.NewRecorder()
	m.CreateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreateMaintenanceHandlerMultipartWithInvoice(t *testing.T) {
	s, p := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}
	vehicle := seedVehicle(t, s, "Daily driver")

	p.On("UploadInvoice", mock.Anything, handlerIdentity, vehicle.ID, mock.Anything, "invoice.jpg").
		Return("https://res.cloudinary.com/carlog/invoice.jpg", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	assert.NoError(t, mw.WriteField("entry", `{"date":"2024-03-01T00:00:00Z","label":"Oil change","mileage":42500,"price":120.5,"garage":"Garage Central"}`))
	fw, err := mw.CreateFormFile("invoice", "invoice.jpg")
	assert.NoError(t, err)
	fw.Write([]byte("jpeg-bytes"))
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/vehicle/"+url.PathEscape(vehicle.ID)+"/maintenance", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = mux.SetURLVars(req, map[string]string{"vehicle_id": vehicle.ID})
	rr := httptest.NewRecorder()
	m.CreateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.MaintenanceEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "https://res.cloudinary.com/carlog/invoice.jpg", created.InvoiceURL)
	p.AssertExpectations(t)
	s.Flush()
}

func TestUpdateMaintenanceHandlerNotFound(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}

	body := `{"date":"2024-03-01T00:00:00Z","label":"Oil change","mileage":42500,"price":120.5,"garage":"Garage Central"}`
	req := httptest.NewRequest("PUT", "/api/v1/maintenance/nope", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"entry_id": "nope"})
	rr := httptest.NewRecorder()
	m.UpdateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateMaintenanceHandlerSuccess(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}
	vehicle := seedVehicle(t, s, "Daily driver")

	_, err := s.AddMaintenanceEntry(context.Background(), vehicle.ID, models.MaintenanceInput{
		Date:    mustParseDay(t, "2024-03-01"),
		Label:   "Oil change",
		Mileage: 42500,
		Price:   120.5,
		Garage:  "Garage Central",
	}, nil)
	assert.NoError(t, err)
	s.Flush()

	body := `{"date":"2024-03-01T00:00:00Z","label":"Oil change","mileage":42500,"price":135,"garage":"Garage Central"}`
	req := httptest.NewRequest("PUT", "/api/v1/maintenance/"+url.PathEscape("ent-Oil change"), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"entry_id": "ent-Oil change"})
	rr := httptest.NewRecorder()
	m.UpdateMaintenanceHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	updated, ok := s.Entry("ent-Oil change")
	assert.True(t, ok)
	assert.Equal(t, float64(135), updated.Price)
	assert.Equal(t, vehicle.ID, updated.VehicleID)
	s.Flush()
}

func TestDeleteMaintenanceHandlerIdempotent(t *testing.T) {
	s, _ := newHandlerStore(store.CascadeEntries)
	m := Maintenance{Store: s}

	req := httptest.NewRequest("DELETE", "/api/v1/maintenance/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"entry_id": "nope"})
	rr := httptest.NewRecorder()
	m.DeleteMaintenanceHandler(rr, req)

	// deleting an absent entry is not an error
	assert.Equal(t, http.StatusOK, rr.Code)
}
