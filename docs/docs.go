// Package docs CarLog API.
//
// Documentation of the CarLog vehicle maintenance API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/carlogapp/carlog-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/vehicles vehicles listVehicles
// Lists every vehicle in the garage.
// responses:
//   200: vehiclesResponse

// The vehicle collection.
// swagger:response vehiclesResponse
type vehiclesResponseWrapper struct {
	// in:body
	Body []models.Vehicle
}

// swagger:route GET /api/v1/vehicle/{vehicle_id} vehicles vehicleByID
// Gets a single vehicle by ID.
// responses:
//   200: vehicleByIDResponse

// A single vehicle.
// swagger:response vehicleByIDResponse
type vehicleByIDResponseWrapper struct {
	// in:body
	Body models.Vehicle
}

// swagger:route GET /api/v1/vehicle/{vehicle_id}/maintenance maintenance maintenanceByVehicle
// Lists a vehicle's maintenance entries, newest first.
// responses:
//   200: maintenanceResponse

// The maintenance entries of one vehicle.
// swagger:response maintenanceResponse
type maintenanceResponseWrapper struct {
	// in:body
	Body []models.MaintenanceEntry
}

// swagger:route GET /api/v1/vehicle/{vehicle_id}/summary vehicles vehicleSummary
// Derives the total maintenance cost and latest known mileage of a vehicle.
// responses:
//   200: summaryResponse

// The derived dashboard totals.
// swagger:response summaryResponse
type summaryResponseWrapper struct {
	// in:body
	Body models.Summary
}
