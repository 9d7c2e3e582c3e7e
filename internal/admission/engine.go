package admission

import (
	"fmt"

	"ms-admission/internal/models"
)

// ValidationResult is the engine's decision for one proposed scan. When the
// scan is accepted, NewStatus carries the status the ticket must move to once
// the record is appended.
type ValidationResult struct {
	Accepted  bool
	Reason    models.ReasonCode
	Message   string
	NewStatus models.TicketStatus
}

// Validate decides whether a scan for day may be admitted against the given
// ticket snapshot. It is pure and deterministic: identical inputs always
// yield identical output, no clock, no I/O. That determinism is what makes
// retrying the surrounding transaction from a fresh snapshot safe.
//
// Absence of the ticket record is a store-level concern handled by the
// caller (TICKET_NOT_FOUND, terminal, never retried) before this runs.
//
// Checks run in a fixed order and short-circuit:
//
//  1. cancelled tickets reject everything
//  2. a fully used ticket rejects everything, whichever day is presented
//  3. the day must be in the ticket's denormalized allowed-day set
//  4. a day, once consumed, cannot be consumed again
//
// Steps 2 and 4 share the external ALREADY_SCANNED code; the message records
// which sub-case fired. MaxScans on the ticket is the authoritative cap —
// never the registry, never len(AllowedDays).
func Validate(ticket *models.Ticket, day models.Day) ValidationResult {
	if ticket.Status == models.StatusCancelled {
		return ValidationResult{
			Reason:  models.ReasonTicketCancelled,
			Message: "ticket has been cancelled",
		}
	}

	if ticket.Status == models.StatusUsed {
		return ValidationResult{
			Reason:  models.ReasonAlreadyScanned,
			Message: "ticket already fully used",
		}
	}

	if !ticket.AllowsDay(day) {
		return ValidationResult{
			Reason:  models.ReasonNotValidForDay,
			Message: fmt.Sprintf("ticket type %s is not valid for %s", ticket.Type, day),
		}
	}

	if ticket.ScanForDay(day) != nil {
		return ValidationResult{
			Reason:  models.ReasonAlreadyScanned,
			Message: fmt.Sprintf("%s already scanned for this ticket", day),
		}
	}

	newStatus := models.StatusActive
	if len(ticket.Scans)+1 >= ticket.MaxScans {
		newStatus = models.StatusUsed
	}
	return ValidationResult{
		Accepted:  true,
		Message:   "entry permitted",
		NewStatus: newStatus,
	}
}
