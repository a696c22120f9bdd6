package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// VehicleType selects the fare constants and the routing profile.
type VehicleType string

const (
	VehicleBike VehicleType = "bike"
	VehicleCar  VehicleType = "car"
)

func (v VehicleType) Valid() bool { return v == VehicleBike || v == VehicleCar }

// Role says which side of the marketplace posted a ride.
// A rider searches driver offers and vice versa.
type Role string

const (
	RoleDriverOffer  Role = "driver-offer"
	RoleRiderRequest Role = "rider-request"
)

func (r Role) Valid() bool { return r == RoleDriverOffer || r == RoleRiderRequest }

// Opposite returns the role whose posts this role searches.
func (r Role) Opposite() Role {
	if r == RoleDriverOffer {
		return RoleRiderRequest
	}
	return RoleDriverOffer
}

// Counterparty is the profile of whoever books a post. Vehicle fields are
// required only when the counterparty is a driver.
type Counterparty struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Contact       string `json:"contact"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	VehicleColor  string `json:"vehicle_color,omitempty"`
	VehicleModel  string `json:"vehicle_model,omitempty"`
}

// RidePost is a posted ride offer or request awaiting a match.
type RidePost struct {
	ID           string        `json:"id"`
	Role         Role          `json:"role"`
	PosterID     string        `json:"poster_id"`
	PickupText   string        `json:"pickup"`
	DropoffText  string        `json:"dropoff"`
	PickupCoord  *Coord        `json:"pickup_coord,omitempty"`
	DropoffCoord *Coord        `json:"dropoff_coord,omitempty"`
	VehicleType  VehicleType   `json:"vehicle_type"`
	DistanceKm   float64       `json:"distance_km"`
	Fare         float64       `json:"fare"`
	Commission   float64       `json:"commission"`
	ScheduledAt  time.Time     `json:"scheduled_at"`
	Booked       bool          `json:"booked"`
	Counterparty *Counterparty `json:"counterparty,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// FareQuote is the pricing output. TotalFare is rounded to the nearest
// integer unit, Commission is the platform share before rounding.
type FareQuote struct {
	TotalFare  float64 `json:"total_fare"`
	Commission float64 `json:"commission"`
}

// LocationUpdate is a live position report for a party on an active ride.
type LocationUpdate struct {
	PartyID string    `json:"party_id"`
	Loc     Coord     `json:"loc"`
	Updated time.Time `json:"updated"`
}

// RideEvent is published on every post lifecycle transition.
type RideEvent struct {
	Type   string    `json:"type"` // posted, booked, cancelled
	PostID string    `json:"post_id"`
	Role   Role      `json:"role"`
	At     time.Time `json:"at"`
}
