package tickets

import (
	"context"
	"fmt"
	"time"

	"ms-admission/internal/logger"
	"ms-admission/internal/models"
	"ms-admission/internal/qr"
	"ms-admission/internal/tickettype"
	"ms-admission/internal/utils"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	TicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error)
}

type EventPublisher interface {
	PublishTicketIssued(ticket models.Ticket) error
}

// Service issues tickets at purchase-verification time and serves reads.
// Issuance is where the type registry is consulted: allowed days and the
// scan cap are stamped onto the record so the ticket carries its own rules
// from then on.
type Service struct {
	DB       TicketDBLayer
	Registry *tickettype.Registry
	Events   EventPublisher
	Logger   *logger.Logger
}

func NewService(db TicketDBLayer, registry *tickettype.Registry, events EventPublisher, log *logger.Logger) *Service {
	return &Service{DB: db, Registry: registry, Events: events, Logger: log}
}

type IssueRequest struct {
	PurchaseID  string            `json:"purchase_id"`
	Type        models.TicketType `json:"type"`
	HolderName  string            `json:"holder_name"`
	HolderEmail string            `json:"holder_email"`
	HolderPhone string            `json:"holder_phone,omitempty"`
}

// IssueTicket creates an ACTIVE ticket with an empty scan history and its
// QR code rendered from the canonical payload.
func (s *Service) IssueTicket(ctx context.Context, req IssueRequest) (*models.Ticket, error) {
	cfg, err := s.Registry.ConfigFor(req.Type)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ticket := models.Ticket{
		TicketID:    utils.GenerateTicketID(),
		PurchaseID:  req.PurchaseID,
		Type:        cfg.ID,
		HolderName:  req.HolderName,
		HolderEmail: req.HolderEmail,
		HolderPhone: req.HolderPhone,
		Status:      models.StatusActive,
		Scans:       []models.ScanRecord{},
		AllowedDays: cfg.AllowedDays,
		MaxScans:    cfg.MaxScans,
		Price:       cfg.Price,
		IssuedAt:    now,
		UpdatedAt:   now,
	}

	png, err := qr.EncodePNG(qr.Payload{
		TicketID: ticket.TicketID,
		Type:     ticket.Type,
		Count:    ticket.MaxScans,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR: %w", err)
	}
	ticket.QRCode = png

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogTicket("ISSUE", ticket.TicketID, fmt.Sprintf("type %s for %s", ticket.Type, ticket.HolderName))
	}
	if s.Events != nil {
		if err := s.Events.PublishTicketIssued(ticket); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("issue event publish failed for %s: %v", ticket.TicketID, err))
		}
	}
	return &ticket, nil
}

func (s *Service) GetTicket(ctx context.Context, rawTicketID string) (*models.Ticket, error) {
	ticketID := qr.NormalizeTicketID(rawTicketID)
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, err)
	}
	return ticket, nil
}

func (s *Service) TicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	tickets, err := s.DB.TicketsByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for purchase %s: %w", purchaseID, err)
	}
	return tickets, nil
}
