package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parkgate/internal/domain/audit"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// OccupancyRow is a read-model projection of one occupying reservation.
type OccupancyRow struct {
	ReservationID uuid.UUID
	SlotID        uuid.UUID
	SlotCode      string
	UserID        uuid.UUID
	VehiclePlate  string
	Zone          string
	Status        string
	ContactEmail  string
	ContactPhone  string
	CheckedInAt   time.Time
	BookedEnd     time.Time
}

// OccupancyReader lists reservations currently holding a slot.
type OccupancyReader interface {
	ListOccupying(ctx context.Context) ([]OccupancyRow, error)
}

// DedupStore suppresses repeat alerts for the same reservation and severity
// within a cooldown. Acquire returns false when the key is still held.
type DedupStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Finding is one classified long-stay occupancy.
type Finding struct {
	Row      OccupancyRow
	Severity Severity
	Stayed   time.Duration
}

// LongStayMonitor scans current occupancies, classifies stays against the
// warning and critical thresholds and fans alerts out to owners and staff.
type LongStayMonitor struct {
	reader   OccupancyReader
	dedup    DedupStore
	notifier shared.Notifier
	auditor  shared.AuditAppender
	metrics  shared.MetricsRecorder
	clock    clock.Clock
	cfg      config.MonitorConfig
}

func NewLongStayMonitor(
	reader OccupancyReader,
	dedup DedupStore,
	notifier shared.Notifier,
	auditor shared.AuditAppender,
	metrics shared.MetricsRecorder,
	clk clock.Clock,
	cfg config.MonitorConfig,
) *LongStayMonitor {
	return &LongStayMonitor{
		reader:   reader,
		dedup:    dedup,
		notifier: notifier,
		auditor:  auditor,
		metrics:  metrics,
		clock:    clk,
		cfg:      cfg,
	}
}

// Classify maps a stay duration to a severity. Thresholds measure time since
// physical entry, not since the booked start.
func (m *LongStayMonitor) Classify(now, checkedInAt time.Time) (Severity, time.Duration) {
	stayed := now.Sub(checkedInAt)
	switch {
	case stayed >= m.cfg.CriticalAfter:
		return SeverityCritical, stayed
	case stayed >= m.cfg.WarningAfter:
		return SeverityWarning, stayed
	default:
		return SeverityNone, stayed
	}
}

// Scan produces the current long-stay report without side effects. Rows below
// the warning threshold are excluded.
func (m *LongStayMonitor) Scan(ctx context.Context) ([]Finding, error) {
	rows, err := m.reader.ListOccupying(ctx)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()
	findings := make([]Finding, 0, len(rows))
	for _, row := range rows {
		severity, stayed := m.Classify(now, row.CheckedInAt)
		if severity == SeverityNone {
			continue
		}
		findings = append(findings, Finding{Row: row, Severity: severity, Stayed: stayed})
	}
	return findings, nil
}

// RunScheduled is the cron entrypoint: scan, alert each finding with cooldown
// dedup, then broadcast one staff summary when anything fired.
func (m *LongStayMonitor) RunScheduled(ctx context.Context) error {
	started := m.clock.Now()
	defer func() {
		m.metrics.ObserveScanDuration(m.clock.Now().Sub(started).Seconds())
	}()

	findings, err := m.Scan(ctx)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrency)
	alerted := make([]bool, len(findings))
	for i, f := range findings {
		g.Go(func() error {
			fired, err := m.alertOne(gctx, f)
			if err != nil {
				slog.Error("long-stay alert failed",
					"reservation_id", f.Row.ReservationID.String(), "error", err.Error())
				return nil
			}
			alerted[i] = fired
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fresh := 0
	for _, a := range alerted {
		if a {
			fresh++
		}
	}
	if fresh > 0 {
		m.broadcastSummary(ctx, findings, fresh)
	}
	return nil
}

// alertOne notifies the owner and audits one finding. Returns false when the
// cooldown suppressed it.
func (m *LongStayMonitor) alertOne(ctx context.Context, f Finding) (bool, error) {
	key := fmt.Sprintf("longstay:%s:%s", f.Row.ReservationID.String(), f.Severity)
	ttl := m.cfg.WarningCooldown
	if f.Severity == SeverityCritical {
		ttl = m.cfg.CriticalCooldown
	}
	acquired, err := m.dedup.Acquire(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}

	m.metrics.RecordLongStayAlert(string(f.Severity))

	action := audit.ActionLongStayWarning
	title := "Long stay warning"
	if f.Severity == SeverityCritical {
		action = audit.ActionLongStayCritical
		title = "Long stay critical"
	}

	hours := f.Stayed.Hours()
	entry := audit.New(uuid.Nil, &f.Row.ReservationID, action, true, map[string]any{
		"slot_code":    f.Row.SlotCode,
		"stayed_hours": fmt.Sprintf("%.1f", hours),
		"severity":     string(f.Severity),
	}, m.clock.Now())
	if err := m.auditor.Append(ctx, entry); err != nil {
		return true, err
	}

	message := fmt.Sprintf(
		"Your vehicle %s has been parked in slot %s for %.1f hours. Please check out or extend your reservation.",
		f.Row.VehiclePlate, f.Row.SlotCode, hours)
	if err := m.notifier.Notify(ctx, f.Row.UserID, "long_stay_"+string(f.Severity), title, message, map[string]any{
		"reservation_id": f.Row.ReservationID.String(),
		"slot_id":        f.Row.SlotID.String(),
		"severity":       string(f.Severity),
		"stayed_hours":   fmt.Sprintf("%.1f", hours),
		"email":          f.Row.ContactEmail,
		"phone":          f.Row.ContactPhone,
	}); err != nil {
		return true, err
	}

	staffMessage := fmt.Sprintf("Vehicle %s in slot %s has stayed %.1f hours (%s).",
		f.Row.VehiclePlate, f.Row.SlotCode, hours, f.Severity)
	err = m.notifier.BroadcastStaff(ctx, "long_stay_"+string(f.Severity), title, staffMessage, map[string]any{
		"reservation_id": f.Row.ReservationID.String(),
		"slot_code":      f.Row.SlotCode,
		"severity":       string(f.Severity),
		"stayed_hours":   fmt.Sprintf("%.1f", hours),
	})
	return true, err
}

func (m *LongStayMonitor) broadcastSummary(ctx context.Context, findings []Finding, fresh int) {
	warnings, criticals := 0, 0
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			criticals++
		} else {
			warnings++
		}
	}
	message := fmt.Sprintf("Long-stay scan: %d warning(s), %d critical(s), %d newly alerted.",
		warnings, criticals, fresh)
	if err := m.notifier.BroadcastStaff(ctx, "long_stay_summary", "Long-stay report", message, map[string]any{
		"warnings":  warnings,
		"criticals": criticals,
		"fresh":     fresh,
	}); err != nil {
		slog.Warn("staff broadcast failed", "error", err.Error())
	}
}
