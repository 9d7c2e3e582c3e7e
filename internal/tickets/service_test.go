package tickets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/models"
	"ms-admission/internal/qr"
	"ms-admission/internal/tickettype"
)

// mockTicketDB is a map-backed TicketDBLayer.
type mockTicketDB struct {
	tickets      map[string]*models.Ticket
	shouldFailOn string
}

func newMockTicketDB() *mockTicketDB {
	return &mockTicketDB{tickets: make(map[string]*models.Ticket)}
}

func (m *mockTicketDB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	if m.shouldFailOn == "CreateTicket" {
		return errors.New("insert failed")
	}
	m.tickets[ticket.TicketID] = &ticket
	return nil
}

func (m *mockTicketDB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, ok := m.tickets[ticketID]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	return ticket, nil
}

func (m *mockTicketDB) TicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.PurchaseID == purchaseID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func setupService() (*Service, *mockTicketDB) {
	mockDB := newMockTicketDB()
	return NewService(mockDB, tickettype.Default(), nil, nil), mockDB
}

func TestIssueTicketStampsRegistryRules(t *testing.T) {
	service, mockDB := setupService()

	ticket, err := service.IssueTicket(context.Background(), IssueRequest{
		PurchaseID:  "pur_1",
		Type:        models.TypeCombo,
		HolderName:  "Ada",
		HolderEmail: "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, ticket.Status)
	assert.Empty(t, ticket.Scans)
	assert.Equal(t, []models.Day{models.Day1, models.Day2}, ticket.AllowedDays)
	assert.Equal(t, 2, ticket.MaxScans)
	assert.Equal(t, 2500, ticket.Price)
	assert.Contains(t, mockDB.tickets, ticket.TicketID)

	// QR encodes the canonical payload for this ticket.
	require.NotEmpty(t, ticket.QRCode)
	payload := qr.Payload{TicketID: ticket.TicketID, Type: models.TypeCombo, Count: 2}
	expected, err := qr.EncodePNG(payload)
	require.NoError(t, err)
	assert.Equal(t, expected, ticket.QRCode)
}

func TestIssueTicketUnknownType(t *testing.T) {
	service, mockDB := setupService()

	_, err := service.IssueTicket(context.Background(), IssueRequest{
		PurchaseID:  "pur_1",
		Type:        models.TicketType("VIP"),
		HolderName:  "Ada",
		HolderEmail: "ada@example.com",
	})

	assert.ErrorIs(t, err, tickettype.ErrUnknownTicketType)
	assert.Empty(t, mockDB.tickets)
}

func TestIssueTicketInsertFailure(t *testing.T) {
	service, mockDB := setupService()
	mockDB.shouldFailOn = "CreateTicket"

	_, err := service.IssueTicket(context.Background(), IssueRequest{
		PurchaseID:  "pur_1",
		Type:        models.TypeDay1,
		HolderName:  "Ada",
		HolderEmail: "ada@example.com",
	})

	assert.Error(t, err)
}

func TestGetTicketNormalizesID(t *testing.T) {
	service, mockDB := setupService()
	mockDB.tickets["tkt_1"] = &models.Ticket{TicketID: "tkt_1", Status: models.StatusActive}

	ticket, err := service.GetTicket(context.Background(), "admit://ticket/tkt_1")
	require.NoError(t, err)
	assert.Equal(t, "tkt_1", ticket.TicketID)

	_, err = service.GetTicket(context.Background(), "tkt_missing")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}
