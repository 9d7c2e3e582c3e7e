package qr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"ms-admission/internal/models"
)

// Namespace tags every QR payload issued by this service. Gate scanners key
// on it to reject codes from other systems before hitting the API.
const Namespace = "ADMIT"

// Payload is the decoded content of a ticket QR code. The wire form is
// fixed, colon-separated: ADMIT:<ticketID>:<type>:<count>. Older scanner
// builds wrap it in a URI scheme, which parsing strips first.
type Payload struct {
	TicketID string
	Type     models.TicketType
	Count    int
}

func (p Payload) String() string {
	return fmt.Sprintf("%s:%s:%s:%d", Namespace, p.TicketID, p.Type, p.Count)
}

// ParsePayload decodes a scanned QR string into its parts.
func ParsePayload(raw string) (Payload, error) {
	s := stripScheme(raw)
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != Namespace {
		return Payload{}, fmt.Errorf("not a %s payload: %q", Namespace, raw)
	}
	count, err := strconv.Atoi(parts[3])
	if err != nil {
		return Payload{}, fmt.Errorf("bad scan count in payload %q: %w", raw, err)
	}
	return Payload{
		TicketID: parts[1],
		Type:     models.TicketType(parts[2]),
		Count:    count,
	}, nil
}

// TicketIDFromScan extracts the ticket id from whatever a gate device sends:
// a full payload, a URI-wrapped id, or the bare id.
func TicketIDFromScan(raw string) string {
	if p, err := ParsePayload(raw); err == nil {
		return p.TicketID
	}
	return NormalizeTicketID(raw)
}

// NormalizeTicketID strips the URI-style wrapper some client versions embed
// around the raw id (e.g. admit://ticket/<id>).
func NormalizeTicketID(raw string) string {
	s := stripScheme(raw)
	s = strings.TrimPrefix(s, "ticket/")
	return strings.TrimSpace(s)
}

func stripScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[i+3:]
	}
	return s
}

// EncodePNG renders the payload as a QR image suitable for digital tickets.
func EncodePNG(p Payload) ([]byte, error) {
	return qrcode.Encode(p.String(), qrcode.Medium, 256)
}
