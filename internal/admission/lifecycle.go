package admission

import (
	"context"
	"errors"
	"fmt"

	"ms-admission/internal/models"
	"ms-admission/internal/qr"
)

// LifecycleResult is the outcome of a cancel or transfer operation.
type LifecycleResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NotFound bool   `json:"-"`
}

// CancelTicket moves a ticket to its terminal CANCELLED state. Cancellation
// only prevents future scans; a fully used ticket's admission history cannot
// be erased, so cancelling one is rejected. Cancelling a partially used
// multi-day ticket is a policy decision (AllowPartialUseCancel).
func (c *Coordinator) CancelTicket(ctx context.Context, rawTicketID, reason string) LifecycleResult {
	ticketID := qr.NormalizeTicketID(rawTicketID)

	var out LifecycleResult
	var cancelled models.Ticket

	err := c.runTicketTx(ctx, ticketID, func(ctx context.Context, tx TicketTx) error {
		out = LifecycleResult{}

		ticket, err := tx.Get(ctx)
		if err != nil {
			return err
		}

		switch {
		case ticket.Status == models.StatusCancelled:
			out.Message = "ticket is already cancelled"
			return nil
		case ticket.Status == models.StatusUsed:
			out.Message = "cannot cancel a fully used ticket"
			return nil
		case len(ticket.Scans) > 0 && !c.AllowPartialUseCancel:
			out.Message = "cannot cancel a partially used ticket"
			return nil
		}

		ticket.Status = models.StatusCancelled
		ticket.CancelReason = reason
		ticket.UpdatedAt = c.now()
		if err := tx.Update(ctx, ticket); err != nil {
			return err
		}

		cancelled = *ticket
		out.Success = true
		out.Message = "ticket cancelled"
		return nil
	})
	if err != nil {
		return c.lifecycleFailure(ticketID, "cancel", err)
	}

	if out.Success {
		c.logTicket("CANCEL", ticketID, reason)
		if c.Events != nil {
			if err := c.Events.PublishTicketCancelled(cancelled); err != nil && c.Logger != nil {
				c.Logger.Error("KAFKA", fmt.Sprintf("cancel event publish failed for %s: %v", ticketID, err))
			}
		}
	}
	return out
}

// TransferTicket replaces the holder identity on a ticket. Transfers are
// rejected for cancelled and fully used tickets but allowed for partially
// used ones: a combo ticket that admitted on day one can still change hands
// for day two. Scans and status are never touched; the outgoing holder is
// snapshotted for audit.
func (c *Coordinator) TransferTicket(ctx context.Context, rawTicketID string, newHolder models.Holder) LifecycleResult {
	ticketID := qr.NormalizeTicketID(rawTicketID)

	var out LifecycleResult
	var transferred models.Ticket

	err := c.runTicketTx(ctx, ticketID, func(ctx context.Context, tx TicketTx) error {
		out = LifecycleResult{}

		ticket, err := tx.Get(ctx)
		if err != nil {
			return err
		}

		switch ticket.Status {
		case models.StatusCancelled:
			out.Message = "cannot transfer a cancelled ticket"
			return nil
		case models.StatusUsed:
			out.Message = "cannot transfer a fully used ticket"
			return nil
		}

		ticket.PreviousHolder = &models.Holder{
			Name:  ticket.HolderName,
			Email: ticket.HolderEmail,
			Phone: ticket.HolderPhone,
		}
		ticket.HolderName = newHolder.Name
		ticket.HolderEmail = newHolder.Email
		ticket.HolderPhone = newHolder.Phone
		ticket.UpdatedAt = c.now()
		if err := tx.Update(ctx, ticket); err != nil {
			return err
		}

		transferred = *ticket
		out.Success = true
		out.Message = fmt.Sprintf("ticket transferred to %s", newHolder.Name)
		return nil
	})
	if err != nil {
		return c.lifecycleFailure(ticketID, "transfer", err)
	}

	if out.Success {
		c.logTicket("TRANSFER", ticketID, fmt.Sprintf("new holder: %s", newHolder.Name))
		if c.Events != nil {
			if err := c.Events.PublishTicketTransferred(transferred); err != nil && c.Logger != nil {
				c.Logger.Error("KAFKA", fmt.Sprintf("transfer event publish failed for %s: %v", ticketID, err))
			}
		}
	}
	return out
}

func (c *Coordinator) lifecycleFailure(ticketID, op string, err error) LifecycleResult {
	if errors.Is(err, models.ErrTicketNotFound) {
		return LifecycleResult{Message: "ticket not found", NotFound: true}
	}
	if c.Logger != nil {
		c.Logger.Error("TICKET", fmt.Sprintf("%s transaction failed for %s: %v", op, ticketID, err))
	}
	return LifecycleResult{Message: fmt.Sprintf("%s could not be processed", op)}
}

func (c *Coordinator) logTicket(action, ticketID, message string) {
	if c.Logger != nil {
		c.Logger.LogTicket(action, ticketID, message)
	}
}
