package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-admission/internal/models"
	"ms-admission/internal/qr"
	"ms-admission/internal/utils"
)

// ManualScanResult is the outcome of a staff override scan.
type ManualScanResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RecordManualScan is the staff entry point for when automatic scanning
// fails (damaged QR, connectivity). It deliberately skips the engine's
// day-membership and fully-used checks — staff may override eligibility —
// but still holds the one-scan-per-day invariant and the usual status
// recompute. The scan is stamped with the MANUAL_ADMIN/ADMIN_PANEL
// sentinels and an admin-action record is kept alongside the scan log.
//
// at is the admission time the staff member attests to; zero means now.
func (c *Coordinator) RecordManualScan(ctx context.Context, rawTicketID string, day models.Day, location string, at time.Time, performedBy string) ManualScanResult {
	ticketID := qr.TicketIDFromScan(rawTicketID)
	if at.IsZero() {
		at = c.now()
	}

	var out ManualScanResult

	err := c.runTicketTx(ctx, ticketID, func(ctx context.Context, tx TicketTx) error {
		out = ManualScanResult{}

		ticket, err := tx.Get(ctx)
		if err != nil {
			return err
		}

		if ticket.Status == models.StatusCancelled {
			out.Message = "ticket has been cancelled"
			return nil
		}
		if ticket.ScanForDay(day) != nil {
			out.Message = fmt.Sprintf("%s already scanned for this ticket", day)
			return nil
		}

		ticket.Scans = append(ticket.Scans, models.ScanRecord{
			Day:       day,
			Timestamp: at,
			Gate:      location,
			ScannedBy: models.ManualAdminOperator,
			DeviceID:  models.AdminPanelDevice,
		})
		if len(ticket.Scans) >= ticket.MaxScans {
			ticket.Status = models.StatusUsed
		}
		ticket.UpdatedAt = c.now()
		if err := tx.Update(ctx, ticket); err != nil {
			return err
		}

		out.Success = true
		out.Message = fmt.Sprintf("manual scan recorded for %s", day)
		return nil
	})

	switch {
	case errors.Is(err, models.ErrTicketNotFound):
		out = ManualScanResult{Message: "ticket not found"}
	case err != nil:
		if c.Logger != nil {
			c.Logger.Error("SCAN", fmt.Sprintf("manual scan transaction failed for %s: %v", ticketID, err))
		}
		out = ManualScanResult{Message: "manual scan could not be processed"}
	}

	result := models.ScanFailed
	if out.Success {
		result = models.ScanSuccess
	}
	c.appendScanLog(ctx, models.ScanLogEntry{
		ID:        utils.GenerateScanLogID(),
		TicketID:  ticketID,
		Day:       day,
		ScannedBy: models.ManualAdminOperator,
		Gate:      location,
		DeviceID:  models.AdminPanelDevice,
		Timestamp: c.now(),
		Result:    result,
		Message:   out.Message,
	})
	c.recordAdminAction(ctx, models.AdminAction{
		ID:          utils.GenerateAdminActionID(),
		Action:      "manual_scan",
		TicketID:    ticketID,
		PerformedBy: performedBy,
		Timestamp:   c.now(),
		Details:     fmt.Sprintf("manual scan for %s at %s: %s", day, location, out.Message),
	})

	return out
}
