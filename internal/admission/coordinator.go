package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-admission/internal/logger"
	"ms-admission/internal/models"
	"ms-admission/internal/qr"
	"ms-admission/internal/utils"
)

const defaultTxRetries = 3

// TicketTx is the view of a single ticket document inside one store
// transaction. Get returns models.ErrTicketNotFound when no record exists.
type TicketTx interface {
	Get(ctx context.Context) (*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
}

// TicketStore runs fn inside a transaction scoped to one ticket id. The one
// non-negotiable requirement on implementations: concurrent transactions for
// the same ticket id serialize (no lost updates), while transactions on
// different ids stay independent.
type TicketStore interface {
	InTicketTx(ctx context.Context, ticketID string, fn func(ctx context.Context, tx TicketTx) error) error
}

// AuditSink receives the append-only attempt trail. Writes are best-effort:
// a sink failure is logged and never alters a scan decision.
type AuditSink interface {
	Append(ctx context.Context, entry models.ScanLogEntry) error
	RecordAdminAction(ctx context.Context, action models.AdminAction) error
}

// GateLocker is an optional advisory per-ticket lock taken around the scan
// transaction to shed duplicate-tap contention before it reaches the
// database. The store transaction stays the correctness boundary; a lock
// miss or error never blocks a scan.
type GateLocker interface {
	LockTicket(ctx context.Context, ticketID, owner string) (bool, error)
	UnlockTicket(ctx context.Context, ticketID, owner string) error
}

// EventPublisher streams lifecycle notifications. Fire-and-forget.
type EventPublisher interface {
	PublishTicketCancelled(ticket models.Ticket) error
	PublishTicketTransferred(ticket models.Ticket) error
}

// ScanRequest is one admission attempt from a gate device. TicketID may be
// the bare id, a URI-wrapped id, or the full QR payload.
type ScanRequest struct {
	TicketID  string     `json:"ticket_id"`
	Day       models.Day `json:"day"`
	ScannedBy string     `json:"scanned_by"`
	Gate      string     `json:"gate"`
	DeviceID  string     `json:"device_id"`
}

// ScanOutcome is the decision returned to the gate. Rejections are data, not
// errors: the gate shows the reason and denies entry.
type ScanOutcome struct {
	Accepted       bool              `json:"accepted"`
	Reason         models.ReasonCode `json:"reason,omitempty"`
	Message        string            `json:"message"`
	TicketType     models.TicketType `json:"ticket_type,omitempty"`
	HolderName     string            `json:"holder_name,omitempty"`
	RemainingScans int               `json:"remaining_scans"`
}

// Coordinator wraps the validation engine in store transactions and
// guarantees an audit record for every attempt.
type Coordinator struct {
	Store  TicketStore
	Audit  AuditSink
	Lock   GateLocker
	Events EventPublisher
	Logger *logger.Logger

	// MaxRetries bounds how often a failed transaction is re-run from a
	// fresh snapshot before the scan is rejected with SCAN_FAILED.
	MaxRetries int
	// AllowPartialUseCancel permits cancelling a multi-day ticket that has
	// already admitted on some of its days.
	AllowPartialUseCancel bool

	now func() time.Time
}

func NewCoordinator(store TicketStore, audit AuditSink, log *logger.Logger) *Coordinator {
	return &Coordinator{
		Store:                 store,
		Audit:                 audit,
		Logger:                log,
		MaxRetries:            defaultTxRetries,
		AllowPartialUseCancel: true,
		now:                   time.Now,
	}
}

// SubmitScan decides one gate scan: read the current ticket inside a
// per-ticket transaction, validate, and on acceptance append the scan record
// and recompute status as one atomic unit. Every attempt, accepted or not,
// produces exactly one scan-log entry after the transaction settles.
func (c *Coordinator) SubmitScan(ctx context.Context, req ScanRequest) ScanOutcome {
	ticketID := qr.TicketIDFromScan(req.TicketID)

	if c.Lock != nil {
		if ok, err := c.Lock.LockTicket(ctx, ticketID, req.DeviceID); err == nil && ok {
			defer c.Lock.UnlockTicket(ctx, ticketID, req.DeviceID)
		}
	}

	outcome := c.runScan(ctx, ticketID, req)

	result := models.ScanFailed
	if outcome.Accepted {
		result = models.ScanSuccess
	}
	c.appendScanLog(ctx, models.ScanLogEntry{
		ID:        utils.GenerateScanLogID(),
		TicketID:  ticketID,
		Day:       req.Day,
		ScannedBy: req.ScannedBy,
		Gate:      req.Gate,
		DeviceID:  req.DeviceID,
		Timestamp: c.now(),
		Result:    result,
		Reason:    outcome.Reason,
		Message:   outcome.Message,
	})

	return outcome
}

func (c *Coordinator) runScan(ctx context.Context, ticketID string, req ScanRequest) ScanOutcome {
	var out ScanOutcome

	err := c.runTicketTx(ctx, ticketID, func(ctx context.Context, tx TicketTx) error {
		out = ScanOutcome{}

		ticket, err := tx.Get(ctx)
		if err != nil {
			return err
		}

		out.TicketType = ticket.Type
		out.HolderName = ticket.HolderName
		out.RemainingScans = ticket.RemainingScans()

		res := Validate(ticket, req.Day)
		out.Message = res.Message
		if !res.Accepted {
			// No mutation was staged; the transaction commits empty.
			out.Reason = res.Reason
			return nil
		}

		scannedAt := c.now()
		ticket.Scans = append(ticket.Scans, models.ScanRecord{
			Day:       req.Day,
			Timestamp: scannedAt,
			Gate:      req.Gate,
			ScannedBy: req.ScannedBy,
			DeviceID:  req.DeviceID,
		})
		ticket.Status = res.NewStatus
		ticket.UpdatedAt = scannedAt
		if err := tx.Update(ctx, ticket); err != nil {
			return err
		}

		out.Accepted = true
		out.RemainingScans = ticket.RemainingScans()
		return nil
	})

	switch {
	case err == nil:
		if out.Accepted {
			c.logScan("ACCEPT", ticketID, fmt.Sprintf("%s admitted at %s by %s", req.Day, req.Gate, req.ScannedBy))
		} else {
			c.logScan("REJECT", ticketID, fmt.Sprintf("%s: %s", out.Reason, out.Message))
		}
		return out
	case errors.Is(err, models.ErrTicketNotFound):
		c.logScan("REJECT", ticketID, "no ticket record for scanned id")
		return ScanOutcome{
			Reason:  models.ReasonTicketNotFound,
			Message: "no ticket found for this code",
		}
	default:
		if c.Logger != nil {
			c.Logger.Error("SCAN", fmt.Sprintf("transaction failed for %s after retries: %v", ticketID, err))
		}
		return ScanOutcome{
			Reason:  models.ReasonScanFailed,
			Message: "scan could not be processed, deny entry and retry",
		}
	}
}

// runTicketTx re-runs the whole read-validate-write sequence on transient
// store failure so validation always sees the snapshot that will commit.
// ErrTicketNotFound is terminal and never retried.
func (c *Coordinator) runTicketTx(ctx context.Context, ticketID string, fn func(ctx context.Context, tx TicketTx) error) error {
	retries := c.MaxRetries
	if retries <= 0 {
		retries = defaultTxRetries
	}

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		err = c.Store.InTicketTx(ctx, ticketID, fn)
		if err == nil || errors.Is(err, models.ErrTicketNotFound) {
			return err
		}
		if c.Logger != nil {
			c.Logger.Warn("SCAN", fmt.Sprintf("transaction attempt %d/%d for %s failed: %v", attempt, retries, ticketID, err))
		}
	}
	return err
}

func (c *Coordinator) appendScanLog(ctx context.Context, entry models.ScanLogEntry) {
	if c.Audit == nil {
		return
	}
	if err := c.Audit.Append(ctx, entry); err != nil {
		// Best-effort: the decision has already been made and returned.
		if c.Logger != nil {
			c.Logger.Error("AUDIT", fmt.Sprintf("scan log append failed for %s: %v", entry.TicketID, err))
		}
		return
	}
	if c.Logger != nil {
		c.Logger.LogAudit(string(entry.Result), entry.TicketID, entry.Message)
	}
}

func (c *Coordinator) recordAdminAction(ctx context.Context, action models.AdminAction) {
	if c.Audit == nil {
		return
	}
	if err := c.Audit.RecordAdminAction(ctx, action); err != nil && c.Logger != nil {
		c.Logger.Error("AUDIT", fmt.Sprintf("admin action record failed for %s: %v", action.TicketID, err))
	}
}

func (c *Coordinator) logScan(action, ticketID, message string) {
	if c.Logger != nil {
		c.Logger.LogScan(action, ticketID, message)
	}
}
