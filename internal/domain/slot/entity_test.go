//go:build unit

package slot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testSlot(vehicleTypes []string) *Slot {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return Reconstruct(uuid.New(), "A-101", "A", "1", "north", vehicleTypes, false, now, now)
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		name        string
		types       []string
		vehicleType string
		want        bool
	}{
		{name: "listed type", types: []string{"car", "suv"}, vehicleType: "car", want: true},
		{name: "unlisted type", types: []string{"car", "suv"}, vehicleType: "truck", want: false},
		{name: "empty filter admits everything", types: nil, vehicleType: "truck", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSlot(tt.types)
			assert.Equal(t, tt.want, s.Accepts(tt.vehicleType))
			err := s.ValidateVehicle(tt.vehicleType)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIncompatibleVehicle)
			}
		})
	}
}

func TestOccupiedFlag(t *testing.T) {
	s := testSlot(nil)
	assert.False(t, s.Occupied())
	s.MarkOccupied()
	assert.True(t, s.Occupied())
	s.MarkFree()
	assert.False(t, s.Occupied())
}
