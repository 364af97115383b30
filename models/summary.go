package models

// Summary is the derived dashboard view for one vehicle: the total spent on
// maintenance and the mileage at the most recent entry. A vehicle with no
// entries falls back to its own stored odometer reading.
type Summary struct {
	TotalCost   float64 `json:"totalCost"`
	LastMileage int     `json:"lastMileage"`
}
