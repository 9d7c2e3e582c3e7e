package tickettype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/models"
)

func TestConfigForKnownTypes(t *testing.T) {
	r := Default()

	day1, err := r.ConfigFor(models.TypeDay1)
	require.NoError(t, err)
	assert.Equal(t, []models.Day{models.Day1}, day1.AllowedDays)
	assert.Equal(t, 1, day1.MaxScans)

	combo, err := r.ConfigFor(models.TypeCombo)
	require.NoError(t, err)
	assert.Equal(t, []models.Day{models.Day1, models.Day2}, combo.AllowedDays)
	assert.Equal(t, 2, combo.MaxScans)
}

func TestConfigForUnknownType(t *testing.T) {
	r := Default()

	_, err := r.ConfigFor(models.TicketType("VIP"))

	assert.ErrorIs(t, err, ErrUnknownTicketType)
}

func TestConfigForReturnsCopy(t *testing.T) {
	r := Default()

	first, err := r.ConfigFor(models.TypeCombo)
	require.NoError(t, err)
	first.AllowedDays[0] = models.Day("DAY_9")

	second, err := r.ConfigFor(models.TypeCombo)
	require.NoError(t, err)
	assert.Equal(t, models.Day1, second.AllowedDays[0], "registry state must not alias caller slices")
}

func TestRegistryInjection(t *testing.T) {
	// Fixture registries substitute cleanly: nothing is process-global.
	r := NewRegistry(Config{
		ID:          models.TicketType("WORKSHOP"),
		Price:       500,
		AllowedDays: []models.Day{models.Day2},
		MaxScans:    1,
	})

	cfg, err := r.ConfigFor(models.TicketType("WORKSHOP"))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Price)

	_, err = r.ConfigFor(models.TypeCombo)
	assert.Error(t, err)
}
