package reservation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !end.After(start) {
		return TimeSlot{}, errors.New("end time must be after start time")
	}

	return TimeSlot{
		start: start.UTC(),
		end:   end.UTC(),
	}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

// Overlaps is the canonical interval test used by the conflict resolver:
// existing.start < end AND existing.end > start.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && ts.end.After(other.start)
}

func (ts TimeSlot) Contains(t time.Time) bool {
	return !t.Before(ts.start) && t.Before(ts.end)
}

func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}

// Money is an amount in paise. Rendering keeps exactly two decimals.
type Money struct {
	paise int64
}

func NewMoney(paise int64) Money {
	return Money{paise: paise}
}

func NewMoneyFromAmount(amount float64) Money {
	return Money{paise: int64(math.Round(amount * 100))}
}

func (m Money) Paise() int64 {
	return m.paise
}

func (m Money) Amount() float64 {
	return float64(m.paise) / 100.0
}

func (m Money) Add(other Money) Money {
	return Money{paise: m.paise + other.paise}
}

func (m Money) Sub(other Money) Money {
	return Money{paise: m.paise - other.paise}
}

// MulRounded multiplies by a factor and rounds to the nearest paise.
func (m Money) MulRounded(factor float64) Money {
	return Money{paise: int64(math.Round(float64(m.paise) * factor))}
}

func (m Money) IsZero() bool {
	return m.paise == 0
}

func (m Money) IsNegative() bool {
	return m.paise < 0
}

func (m Money) String() string {
	p := m.paise
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}

// Extension is one append-only record of a granted end-time extension.
type Extension struct {
	At             time.Time
	NewEnd         time.Time
	AdditionalCost Money
}

// Verification captures a staff gate action.
type Verification struct {
	VerifierID uuid.UUID
	At         time.Time
	Notes      string
}

// CheckEvent captures who performed a check-in/check-out, when and from where.
type CheckEvent struct {
	At       time.Time
	ActorID  uuid.UUID
	SourceIP string
}
