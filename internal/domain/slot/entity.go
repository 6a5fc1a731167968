package slot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIncompatibleVehicle = errors.New("slot does not accept this vehicle type")
)

// Slot is a physical parking space. The occupied flag is a cached derivative
// of active reservation state; every occupancy-changing transition updates it
// inside the same transaction, and check-in self-heals a stale flag when no
// other active occupant exists.
type Slot struct {
	id           uuid.UUID
	code         string
	zone         string
	floor        string
	section      string
	vehicleTypes []string
	occupied     bool
	createdAt    time.Time
	updatedAt    time.Time
}

func Reconstruct(
	id uuid.UUID,
	code, zone, floor, section string,
	vehicleTypes []string,
	occupied bool,
	createdAt, updatedAt time.Time,
) *Slot {
	return &Slot{
		id:           id,
		code:         code,
		zone:         zone,
		floor:        floor,
		section:      section,
		vehicleTypes: vehicleTypes,
		occupied:     occupied,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// Accepts reports whether the slot's compatibility filter admits the vehicle
// type. An empty filter admits everything.
func (s *Slot) Accepts(vehicleType string) bool {
	if len(s.vehicleTypes) == 0 {
		return true
	}
	for _, vt := range s.vehicleTypes {
		if vt == vehicleType {
			return true
		}
	}
	return false
}

func (s *Slot) ValidateVehicle(vehicleType string) error {
	if !s.Accepts(vehicleType) {
		return ErrIncompatibleVehicle
	}
	return nil
}

func (s *Slot) MarkOccupied()   { s.occupied = true }
func (s *Slot) MarkFree()       { s.occupied = false }

func (s *Slot) ID() uuid.UUID          { return s.id }
func (s *Slot) Code() string           { return s.code }
func (s *Slot) Zone() string           { return s.zone }
func (s *Slot) Floor() string          { return s.floor }
func (s *Slot) Section() string        { return s.section }
func (s *Slot) VehicleTypes() []string { return s.vehicleTypes }
func (s *Slot) Occupied() bool         { return s.occupied }
func (s *Slot) CreatedAt() time.Time   { return s.createdAt }
func (s *Slot) UpdatedAt() time.Time   { return s.updatedAt }
