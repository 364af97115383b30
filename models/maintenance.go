package models

import "time"

// MaintenanceEntry holds the structure for the maintenance collection in
// mongo. Dates carry day precision only; DayUTC normalizes them.
type MaintenanceEntry struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"userId" bson:"userId"`
	VehicleID  string    `json:"vehicleId" bson:"vehicleId"`
	Date       time.Time `json:"date" bson:"date"`
	Label      string    `json:"label" bson:"label"`
	Mileage    int       `json:"mileage" bson:"mileage"`
	Price      float64   `json:"price" bson:"price"`
	Garage     string    `json:"garage" bson:"garage"`
	InvoiceURL string    `json:"invoiceUrl,omitempty" bson:"invoiceUrl,omitempty"`
}

// MaintenanceInput carries the fields submitted when creating or replacing a
// maintenance entry. InvoiceURL is set when the invoice image was already
// uploaded by the caller; a pending file upload is handled separately by the
// record store.
type MaintenanceInput struct {
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
	Mileage    int       `json:"mileage"`
	Price      float64   `json:"price"`
	Garage     string    `json:"garage"`
	InvoiceURL string    `json:"invoiceUrl,omitempty"`
}

// Validate checks the maintenance payload at the form boundary. Mirrors the
// dashboard form rules: label and garage need at least two characters,
// mileage and price must not be negative, the date must fall between 1900 and
// today.
func (in MaintenanceInput) Validate() error {
	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if in.Date.Before(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)) {
		return &ValidationError{Field: "date", Reason: "must not be before 1900"}
	}
	if DayUTC(in.Date).After(DayUTC(time.Now())) {
		return &ValidationError{Field: "date", Reason: "must not be in the future"}
	}
	if len(in.Label) < 2 {
		return &ValidationError{Field: "label", Reason: "must have at least 2 characters"}
	}
	if in.Mileage < 0 {
		return &ValidationError{Field: "mileage", Reason: "must not be negative"}
	}
	if in.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if len(in.Garage) < 2 {
		return &ValidationError{Field: "garage", Reason: "must have at least 2 characters"}
	}
	return nil
}

// DayUTC drops the time-of-day component, keeping the calendar date in UTC.
func DayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
