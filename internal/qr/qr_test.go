package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/models"
)

func TestPayloadRoundTrip(t *testing.T) {
	p := Payload{TicketID: "tkt_1700000000_000042", Type: models.TypeCombo, Count: 2}

	assert.Equal(t, "ADMIT:tkt_1700000000_000042:COMBO:2", p.String())

	parsed, err := ParsePayload(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestParsePayloadStripsURIScheme(t *testing.T) {
	parsed, err := ParsePayload("admit://ADMIT:tkt_1:DAY_1:1")
	require.NoError(t, err)
	assert.Equal(t, "tkt_1", parsed.TicketID)
	assert.Equal(t, models.TypeDay1, parsed.Type)
	assert.Equal(t, 1, parsed.Count)
}

func TestParsePayloadRejectsForeignNamespace(t *testing.T) {
	_, err := ParsePayload("OTHER:tkt_1:DAY_1:1")
	assert.Error(t, err)
}

func TestParsePayloadRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "ADMIT:tkt_1", "ADMIT:tkt_1:DAY_1:notanumber", "tkt_1"} {
		_, err := ParsePayload(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestNormalizeTicketID(t *testing.T) {
	cases := map[string]string{
		"tkt_1":                  "tkt_1",
		"admit://ticket/tkt_1":   "tkt_1",
		"https://ticket/tkt_1":   "tkt_1",
		"admit://tkt_1":          "tkt_1",
		"  admit://ticket/tkt_1": "tkt_1",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeTicketID(raw), "raw=%q", raw)
	}
}

func TestTicketIDFromScan(t *testing.T) {
	assert.Equal(t, "tkt_1", TicketIDFromScan("ADMIT:tkt_1:COMBO:2"))
	assert.Equal(t, "tkt_1", TicketIDFromScan("admit://ticket/tkt_1"))
	assert.Equal(t, "tkt_1", TicketIDFromScan("tkt_1"))
}

func TestEncodePNG(t *testing.T) {
	png, err := EncodePNG(Payload{TicketID: "tkt_1", Type: models.TypeDay1, Count: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
