package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	SlotID       uuid.UUID `json:"slot_id" binding:"required"`
	VehiclePlate string    `json:"vehicle_plate" binding:"required"`
	VehicleType  string    `json:"vehicle_type" binding:"required"`
	ContactEmail string    `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string    `json:"contact_phone"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
}

// GateVerifyRequest identifies the reservation either by id (path param) or
// by plate when staff look it up at the barrier.
type GateVerifyRequest struct {
	VehiclePlate string `json:"vehicle_plate"`
	Notes        string `json:"notes"`
}

type GateCheckoutVerifyRequest struct {
	SecretCode string `json:"secret_code" binding:"required"`
	Notes      string `json:"notes"`
}

type CoordinatesRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lon float64 `json:"lon" binding:"required"`
}

type ExtendRequest struct {
	NewEndTime time.Time `json:"new_end_time" binding:"required"`
}

type EarlyCheckInRequest struct {
	NewStartTime time.Time `json:"new_start_time" binding:"required"`
}

type FeeQuoteRequest struct {
	VehicleType string    `json:"vehicle_type" binding:"required"`
	Zone        string    `json:"zone"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}
