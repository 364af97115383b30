package models

import "time"

// Vehicle holds the structure for the vehicles collection in mongo
type Vehicle struct {
	ID           string `json:"id" bson:"_id"`
	UserID       string `json:"userId" bson:"userId"`
	Name         string `json:"name" bson:"name"`
	Brand        string `json:"brand" bson:"brand"`
	Model        string `json:"model" bson:"model"`
	Year         int    `json:"year" bson:"year"`
	Mileage      int    `json:"mileage" bson:"mileage"`
	LicensePlate string `json:"licensePlate" bson:"licensePlate"`
}

// VehicleInput carries the fields submitted when creating or replacing a
// vehicle. The id and owner are never part of the payload.
type VehicleInput struct {
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Mileage      int    `json:"mileage"`
	LicensePlate string `json:"licensePlate"`
}

// Validate checks the vehicle payload at the form boundary. The record store
// trusts input that passed here.
func (in VehicleInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Brand == "" {
		return &ValidationError{Field: "brand", Reason: "must not be empty"}
	}
	if in.Model == "" {
		return &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if in.Year < 1900 || in.Year > time.Now().Year()+1 {
		return &ValidationError{Field: "year", Reason: "must be between 1900 and next year"}
	}
	if in.Mileage < 0 {
		return &ValidationError{Field: "mileage", Reason: "must not be negative"}
	}
	if in.LicensePlate == "" {
		return &ValidationError{Field: "licensePlate", Reason: "must not be empty"}
	}
	return nil
}
