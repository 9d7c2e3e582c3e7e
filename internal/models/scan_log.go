package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ReasonCode classifies why a scan was rejected. Codes are part of the gate
// client API: rejections are returned as data, not errors.
type ReasonCode string

const (
	ReasonTicketNotFound  ReasonCode = "TICKET_NOT_FOUND"
	ReasonTicketCancelled ReasonCode = "TICKET_CANCELLED"
	ReasonAlreadyScanned  ReasonCode = "ALREADY_SCANNED"
	ReasonNotValidForDay  ReasonCode = "NOT_VALID_FOR_DAY"
	// ReasonScanFailed is the generic code surfaced after transaction retries
	// exhaust. The gate treats it like any other rejection: deny and retry.
	ReasonScanFailed ReasonCode = "SCAN_FAILED"
)

type ScanResult string

const (
	ScanSuccess ScanResult = "SUCCESS"
	ScanFailed  ScanResult = "FAILED"
)

// ScanLogEntry is the append-only audit record of one scan attempt, accepted
// or rejected. The stream exists for forensic review only; the validation
// path never reads it back.
type ScanLogEntry struct {
	bun.BaseModel `bun:"table:scan_logs"`

	ID        string     `bun:"id,pk" json:"id"`
	TicketID  string     `bun:"ticket_id" json:"ticket_id"`
	Day       Day        `bun:"day" json:"day"`
	ScannedBy string     `bun:"scanned_by" json:"scanned_by"`
	Gate      string     `bun:"gate" json:"gate"`
	DeviceID  string     `bun:"device_id" json:"device_id"`
	Timestamp time.Time  `bun:"timestamp" json:"timestamp"`
	Result    ScanResult `bun:"result" json:"result"`
	Reason    ReasonCode `bun:"reason,nullzero" json:"reason,omitempty"`
	Message   string     `bun:"message" json:"message"`
}

// AdminAction records a staff override distinct from the scan log: who
// performed it, against which ticket, and what they did.
type AdminAction struct {
	bun.BaseModel `bun:"table:admin_actions"`

	ID          string    `bun:"id,pk" json:"id"`
	Action      string    `bun:"action" json:"action"`
	TicketID    string    `bun:"ticket_id" json:"ticket_id"`
	PerformedBy string    `bun:"performed_by" json:"performed_by"`
	Timestamp   time.Time `bun:"timestamp" json:"timestamp"`
	Details     string    `bun:"details" json:"details"`
}
