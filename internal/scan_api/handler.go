package scan_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-admission/internal/admission"
	"ms-admission/internal/logger"
	"ms-admission/internal/models"
	"ms-admission/internal/tickets"
	"ms-admission/internal/tickettype"
	"ms-admission/internal/utils"
)

type Handler struct {
	Coordinator *admission.Coordinator
	Tickets     *tickets.Service
	Logger      *logger.Logger
}

func NewHandler(coordinator *admission.Coordinator, ticketService *tickets.Service, log *logger.Logger) *Handler {
	return &Handler{Coordinator: coordinator, Tickets: ticketService, Logger: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/scan", h.SubmitScan)
	r.Post("/scan/manual", h.ManualScan)
	r.Route("/ticket", func(r chi.Router) {
		r.Post("/", h.IssueTicket)
		r.Get("/{ticketID}", h.GetTicket)
		r.Get("/{ticketID}/qr", h.GetTicketQR)
		r.Post("/{ticketID}/cancel", h.CancelTicket)
		r.Post("/{ticketID}/transfer", h.TransferTicket)
	})
	return r
}

// SubmitScan is the gate-device endpoint. The response is always 200 with
// the outcome body: a rejection is a decision, not a transport error, and
// the gate UI treats accepted=false uniformly as deny-and-show-reason.
func (h *Handler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req admission.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TicketID == "" || req.Day == "" {
		http.Error(w, "ticket_id and day are required", http.StatusBadRequest)
		return
	}

	outcome := h.Coordinator.SubmitScan(r.Context(), req)
	writeJSON(w, http.StatusOK, outcome)
}

// ManualScan is the staff override endpoint for damaged QR codes or device
// connectivity failures.
func (h *Handler) ManualScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TicketID    string     `json:"ticket_id"`
		Day         models.Day `json:"day"`
		Location    string     `json:"location"`
		Timestamp   int64      `json:"timestamp,omitempty"`
		PerformedBy string     `json:"performed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TicketID == "" || req.Day == "" || req.PerformedBy == "" {
		http.Error(w, "ticket_id, day and performed_by are required", http.StatusBadRequest)
		return
	}

	result := h.Coordinator.RecordManualScan(r.Context(), req.TicketID, req.Day,
		req.Location, utils.UnixTimeToTime(req.Timestamp), req.PerformedBy)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req tickets.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Type == "" || req.HolderName == "" || req.HolderEmail == "" {
		http.Error(w, "type, holder_name and holder_email are required", http.StatusBadRequest)
		return
	}

	ticket, err := h.Tickets.IssueTicket(r.Context(), req)
	if err != nil {
		if errors.Is(err, tickettype.ErrUnknownTicketType) {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("unknown ticket type", err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to issue ticket", err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, utils.SuccessResponse("ticket issued", ticket))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.Tickets.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			writeJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", ticketID))
			return
		}
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to fetch ticket", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket", ticket))
}

// GetTicketQR serves the stored QR image for a digital ticket.
func (h *Handler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.Tickets.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			http.Error(w, "ticket not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch ticket: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(ticket.QRCode)
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.Coordinator.CancelTicket(r.Context(), ticketID, req.Reason)
	writeJSON(w, lifecycleStatus(result), result)
}

func (h *Handler) TransferTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	var req struct {
		NewHolderName  string `json:"new_holder_name"`
		NewHolderEmail string `json:"new_holder_email"`
		NewHolderPhone string `json:"new_holder_phone,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.NewHolderName == "" || req.NewHolderEmail == "" {
		http.Error(w, "new_holder_name and new_holder_email are required", http.StatusBadRequest)
		return
	}

	result := h.Coordinator.TransferTicket(r.Context(), ticketID, models.Holder{
		Name:  req.NewHolderName,
		Email: req.NewHolderEmail,
		Phone: req.NewHolderPhone,
	})
	writeJSON(w, lifecycleStatus(result), result)
}

func lifecycleStatus(result admission.LifecycleResult) int {
	switch {
	case result.Success:
		return http.StatusOK
	case result.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
