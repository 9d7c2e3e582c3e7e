package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// ErrTicketNotFound is returned by store lookups when no record exists for
// the given ticket id. Absence is terminal and never retried.
var ErrTicketNotFound = errors.New("ticket not found")

type TicketStatus string

const (
	StatusActive      TicketStatus = "ACTIVE"
	StatusUsed        TicketStatus = "USED"
	StatusCancelled   TicketStatus = "CANCELLED"
	StatusTransferred TicketStatus = "TRANSFERRED"
)

type TicketType string

const (
	TypeDay1  TicketType = "DAY_1"
	TypeDay2  TicketType = "DAY_2"
	TypeCombo TicketType = "COMBO"
)

// Day is one enumerated admission date the event spans.
type Day string

const (
	Day1 Day = "DAY_1"
	Day2 Day = "DAY_2"
)

// Sentinel operator/device values stamped on staff-entered override scans.
const (
	ManualAdminOperator = "MANUAL_ADMIN"
	AdminPanelDevice    = "ADMIN_PANEL"
)

// Holder is the identity a ticket is currently issued to. A copy of the
// outgoing holder is kept on the ticket after a transfer, for audit.
type Holder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ScanRecord is one successful admission. Records are append-only: insertion
// order is chronological order and entries are never rewritten or removed.
type ScanRecord struct {
	Day       Day       `json:"day"`
	Timestamp time.Time `json:"timestamp"`
	Gate      string    `json:"gate"`
	ScannedBy string    `json:"scanned_by"`
	DeviceID  string    `json:"device_id"`
}

// Ticket is a single admission credential. AllowedDays and MaxScans are
// stamped from the type registry at issuance so that later registry changes
// never retroactively alter an issued ticket's rules; MaxScans on the record
// is the authoritative cap during validation.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID       string       `bun:"ticket_id,pk" json:"ticket_id"`
	PurchaseID     string       `bun:"purchase_id" json:"purchase_id"`
	Type           TicketType   `bun:"type" json:"type"`
	HolderName     string       `bun:"holder_name" json:"holder_name"`
	HolderEmail    string       `bun:"holder_email" json:"holder_email"`
	HolderPhone    string       `bun:"holder_phone" json:"holder_phone,omitempty"`
	PreviousHolder *Holder      `bun:"previous_holder,type:jsonb" json:"previous_holder,omitempty"`
	Status         TicketStatus `bun:"status" json:"status"`
	Scans          []ScanRecord `bun:"scans,type:jsonb" json:"scans"`
	AllowedDays    []Day        `bun:"allowed_days,type:jsonb" json:"allowed_days"`
	MaxScans       int          `bun:"max_scans" json:"max_scans"`
	Price          int          `bun:"price" json:"price"`
	QRCode         []byte       `bun:"qr_code" json:"-"`
	CancelReason   string       `bun:"cancel_reason" json:"cancel_reason,omitempty"`
	IssuedAt       time.Time    `bun:"issued_at" json:"issued_at"`
	UpdatedAt      time.Time    `bun:"updated_at" json:"updated_at"`
}

// AllowsDay reports whether day is covered by the ticket's denormalized
// allowed-day set.
func (t *Ticket) AllowsDay(day Day) bool {
	for _, d := range t.AllowedDays {
		if d == day {
			return true
		}
	}
	return false
}

// ScanForDay returns the recorded scan for day, or nil if that day has not
// been consumed yet.
func (t *Ticket) ScanForDay(day Day) *ScanRecord {
	for i := range t.Scans {
		if t.Scans[i].Day == day {
			return &t.Scans[i]
		}
	}
	return nil
}

// RemainingScans is how many further admissions the ticket permits.
func (t *Ticket) RemainingScans() int {
	remaining := t.MaxScans - len(t.Scans)
	if remaining < 0 {
		return 0
	}
	return remaining
}
