package response

import (
	"time"

	"parkgate/internal/domain/reservation"
	"parkgate/internal/usecase/queries"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

// ReservationResponse is the write-path representation returned by lifecycle
// operations. The secret code appears only on check-in responses.
type ReservationResponse struct {
	ID              uuid.UUID  `json:"id"`
	SlotID          uuid.UUID  `json:"slot_id"`
	UserID          uuid.UUID  `json:"user_id"`
	VehiclePlate    string     `json:"vehicle_plate"`
	VehicleType     string     `json:"vehicle_type"`
	Zone            string     `json:"zone"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	TotalPrice      string     `json:"total_price"`
	ExtensionCount  int        `json:"extension_count"`
	SecretCode      string     `json:"secret_code,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	ActualMinutes   int        `json:"actual_minutes,omitempty"`
	OvertimeMinutes int        `json:"overtime_minutes,omitempty"`
	OvertimeCharge  string     `json:"overtime_charge,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func FromReservation(res *reservation.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ID:             res.ID(),
		SlotID:         res.SlotID(),
		UserID:         res.UserID(),
		VehiclePlate:   res.VehiclePlate(),
		VehicleType:    res.VehicleType(),
		Zone:           res.Zone(),
		Status:         res.Status().String(),
		StartTime:      res.TimeSlot().Start(),
		EndTime:        res.TimeSlot().End(),
		TotalPrice:     res.TotalPrice().String(),
		ExtensionCount: res.ExtensionCount(),
		CreatedAt:      res.CreatedAt(),
		UpdatedAt:      res.UpdatedAt(),
	}
	if e := res.CheckInEvent(); e != nil {
		at := e.At
		resp.CheckedInAt = &at
	}
	if e := res.CheckOutEvent(); e != nil {
		at := e.At
		resp.CheckedOutAt = &at
		resp.ActualMinutes = res.ActualMinutes()
	}
	if res.OvertimeMinutes() > 0 {
		resp.OvertimeMinutes = res.OvertimeMinutes()
		resp.OvertimeCharge = res.OvertimeCharge().String()
	}
	return resp
}

// FromCheckedInReservation includes the freshly issued secret code; this is
// the only response that carries it.
func FromCheckedInReservation(res *reservation.Reservation) *ReservationResponse {
	resp := FromReservation(res)
	resp.SecretCode = res.SecretCode()
	return resp
}

type ReservationViewResponse struct {
	ID              uuid.UUID  `json:"id"`
	SlotID          uuid.UUID  `json:"slot_id"`
	SlotCode        string     `json:"slot_code"`
	VehiclePlate    string     `json:"vehicle_plate"`
	VehicleType     string     `json:"vehicle_type"`
	Zone            string     `json:"zone"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	InitialEnd      time.Time  `json:"initial_end"`
	TotalPricePaise int64      `json:"total_price_paise"`
	ExtensionCount  int        `json:"extension_count"`
	HasSecretCode   bool       `json:"has_secret_code"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	ActualMinutes   int        `json:"actual_minutes,omitempty"`
	OvertimeMinutes int        `json:"overtime_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func FromReservationView(v *queries.ReservationView) *ReservationViewResponse {
	return &ReservationViewResponse{
		ID:              v.ID,
		SlotID:          v.SlotID,
		SlotCode:        v.SlotCode,
		VehiclePlate:    v.VehiclePlate,
		VehicleType:     v.VehicleType,
		Zone:            v.Zone,
		Status:          v.Status,
		StartTime:       v.StartTime,
		EndTime:         v.EndTime,
		InitialEnd:      v.InitialEnd,
		TotalPricePaise: v.TotalPricePaise,
		ExtensionCount:  v.ExtensionCount,
		HasSecretCode:   v.HasSecretCode,
		CheckedInAt:     v.CheckedInAt,
		CheckedOutAt:    v.CheckedOutAt,
		ActualMinutes:   v.ActualMinutes,
		OvertimeMinutes: v.OvertimeMinutes,
		CreatedAt:       v.CreatedAt,
	}
}

// ConflictResponse carries the advisory alternatives alongside a 409.
type ConflictResponse struct {
	Message      string            `json:"message"`
	SlotID       uuid.UUID         `json:"slot_id"`
	Alternatives []shared.Interval `json:"alternatives"`
}

type CancelResponse struct {
	Reservation    *ReservationResponse `json:"reservation"`
	RefundEstimate string               `json:"refund_estimate"`
}

type CheckoutRequestResponse struct {
	Reservation      *ReservationResponse `json:"reservation"`
	AlreadyRequested bool                 `json:"already_requested"`
}

type FeeQuoteResponse struct {
	VehicleType string     `json:"vehicle_type"`
	Zone        string     `json:"zone,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	TotalPaise  int64      `json:"total_paise"`
	Total       string     `json:"total"`
	HourlyPaise int64      `json:"hourly_paise"`
	RateID      *uuid.UUID `json:"rate_id,omitempty"`
	Fallback    bool       `json:"fallback"`
}

func FromFeeQuote(q *queries.FeeQuote) *FeeQuoteResponse {
	return &FeeQuoteResponse{
		VehicleType: q.VehicleType,
		Zone:        q.Zone,
		StartTime:   q.StartTime,
		EndTime:     q.EndTime,
		TotalPaise:  q.TotalPaise,
		Total:       q.Total,
		HourlyPaise: q.HourlyPaise,
		RateID:      q.RateID,
		Fallback:    q.Fallback,
	}
}

type LongStayResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	SlotID        uuid.UUID `json:"slot_id"`
	SlotCode      string    `json:"slot_code"`
	VehiclePlate  string    `json:"vehicle_plate"`
	Zone          string    `json:"zone"`
	Status        string    `json:"status"`
	CheckedInAt   time.Time `json:"checked_in_at"`
	BookedEnd     time.Time `json:"booked_end"`
	StayedHours   float64   `json:"stayed_hours"`
	Severity      string    `json:"severity"`
}

func FromLongStayView(v queries.LongStayView) LongStayResponse {
	return LongStayResponse{
		ReservationID: v.ReservationID,
		SlotID:        v.SlotID,
		SlotCode:      v.SlotCode,
		VehiclePlate:  v.VehiclePlate,
		Zone:          v.Zone,
		Status:        v.Status,
		CheckedInAt:   v.CheckedInAt,
		BookedEnd:     v.BookedEnd,
		StayedHours:   v.StayedHours,
		Severity:      v.Severity,
	}
}
