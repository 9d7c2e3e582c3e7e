package scan_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/admission"
	"ms-admission/internal/models"
	"ms-admission/internal/tickets"
	"ms-admission/internal/tickettype"
)

// fakeStore backs both the coordinator's TicketStore and the issuance
// service's TicketDBLayer for handler tests.
type fakeStore struct {
	tickets map[string]*models.Ticket
}

func newFakeStore(seed ...*models.Ticket) *fakeStore {
	s := &fakeStore{tickets: make(map[string]*models.Ticket)}
	for _, t := range seed {
		cp := *t
		s.tickets[t.TicketID] = &cp
	}
	return s
}

func (s *fakeStore) InTicketTx(ctx context.Context, ticketID string, fn func(ctx context.Context, tx admission.TicketTx) error) error {
	return fn(ctx, &fakeTx{store: s, ticketID: ticketID})
}

type fakeTx struct {
	store    *fakeStore
	ticketID string
}

func (t *fakeTx) Get(ctx context.Context) (*models.Ticket, error) {
	ticket, ok := t.store.tickets[t.ticketID]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	cp := *ticket
	cp.Scans = append([]models.ScanRecord(nil), ticket.Scans...)
	return &cp, nil
}

func (t *fakeTx) Update(ctx context.Context, ticket *models.Ticket) error {
	cp := *ticket
	t.store.tickets[ticket.TicketID] = &cp
	return nil
}

func (s *fakeStore) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	s.tickets[ticket.TicketID] = &ticket
	return nil
}

func (s *fakeStore) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *fakeStore) TicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.PurchaseID == purchaseID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func setupServer(seed ...*models.Ticket) (*httptest.Server, *fakeStore) {
	store := newFakeStore(seed...)
	coordinator := admission.NewCoordinator(store, nil, nil)
	ticketService := tickets.NewService(store, tickettype.Default(), nil, nil)
	handler := NewHandler(coordinator, ticketService, nil)
	return httptest.NewServer(handler.Routes()), store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func activeCombo() *models.Ticket {
	return &models.Ticket{
		TicketID:    "tkt_combo",
		Type:        models.TypeCombo,
		HolderName:  "Ada",
		Status:      models.StatusActive,
		Scans:       []models.ScanRecord{},
		AllowedDays: []models.Day{models.Day1, models.Day2},
		MaxScans:    2,
	}
}

func TestSubmitScanEndpoint(t *testing.T) {
	server, _ := setupServer(activeCombo())
	defer server.Close()

	resp := postJSON(t, server.URL+"/scan", map[string]string{
		"ticket_id":  "tkt_combo",
		"day":        "DAY_1",
		"scanned_by": "staff-7",
		"gate":       "north",
		"device_id":  "dev-1",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out admission.ScanOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Accepted)
	assert.Equal(t, "Ada", out.HolderName)
}

func TestSubmitScanEndpointRejectionIsStill200(t *testing.T) {
	ticket := activeCombo()
	ticket.Status = models.StatusCancelled
	server, _ := setupServer(ticket)
	defer server.Close()

	resp := postJSON(t, server.URL+"/scan", map[string]string{
		"ticket_id": "tkt_combo",
		"day":       "DAY_1",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out admission.ScanOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Accepted)
	assert.Equal(t, models.ReasonTicketCancelled, out.Reason)
}

func TestSubmitScanEndpointValidation(t *testing.T) {
	server, _ := setupServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/scan", map[string]string{"day": "DAY_1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestManualScanEndpoint(t *testing.T) {
	server, store := setupServer(activeCombo())
	defer server.Close()

	resp := postJSON(t, server.URL+"/scan/manual", map[string]interface{}{
		"ticket_id":    "tkt_combo",
		"day":          "DAY_2",
		"location":     "east",
		"performed_by": "admin@example.com",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out admission.ManualScanResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, models.ManualAdminOperator, store.tickets["tkt_combo"].Scans[0].ScannedBy)
}

func TestIssueAndFetchTicket(t *testing.T) {
	server, _ := setupServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/ticket", map[string]string{
		"purchase_id":  "pur_1",
		"type":         "DAY_1",
		"holder_name":  "Ada",
		"holder_email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Ticket `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.Data.TicketID)

	qrResp, err := http.Get(server.URL + "/ticket/" + created.Data.TicketID + "/qr")
	require.NoError(t, err)
	defer qrResp.Body.Close()
	assert.Equal(t, http.StatusOK, qrResp.StatusCode)
	assert.Equal(t, "image/png", qrResp.Header.Get("Content-Type"))
}

func TestIssueTicketUnknownType(t *testing.T) {
	server, _ := setupServer()
	defer server.Close()

	resp := postJSON(t, server.URL+"/ticket", map[string]string{
		"purchase_id":  "pur_1",
		"type":         "VIP",
		"holder_name":  "Ada",
		"holder_email": "ada@example.com",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelEndpointStatusCodes(t *testing.T) {
	server, _ := setupServer(activeCombo())
	defer server.Close()

	resp := postJSON(t, server.URL+"/ticket/tkt_combo/cancel", map[string]string{"reason": "refund"})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Already cancelled now: conflict.
	resp = postJSON(t, server.URL+"/ticket/tkt_combo/cancel", map[string]string{"reason": "refund"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, server.URL+"/ticket/tkt_missing/cancel", map[string]string{"reason": "refund"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransferEndpoint(t *testing.T) {
	server, store := setupServer(activeCombo())
	defer server.Close()

	resp := postJSON(t, server.URL+"/ticket/tkt_combo/transfer", map[string]string{
		"new_holder_name":  "Grace",
		"new_holder_email": "grace@example.com",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Grace", store.tickets["tkt_combo"].HolderName)
}
