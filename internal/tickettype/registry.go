package tickettype

import (
	"errors"
	"fmt"

	"ms-admission/internal/models"
)

// ErrUnknownTicketType is returned when a lookup names a type the registry
// was not configured with.
var ErrUnknownTicketType = errors.New("unknown ticket type")

// Config is the immutable rule set for one ticket type. MaxScans is kept as
// its own field rather than derived from AllowedDays: the cap is the
// authoritative value everywhere downstream.
type Config struct {
	ID          models.TicketType
	Price       int
	AllowedDays []models.Day
	MaxScans    int
}

// Registry is a pure lookup table, built once at startup and injected into
// anything that needs ticket-type rules. No mutation, no I/O.
type Registry struct {
	configs map[models.TicketType]Config
}

func NewRegistry(configs ...Config) *Registry {
	m := make(map[models.TicketType]Config, len(configs))
	for _, c := range configs {
		m[c.ID] = c
	}
	return &Registry{configs: m}
}

// Default returns the registry for the current event: two single-day types
// and a two-day combo.
func Default() *Registry {
	return NewRegistry(
		Config{ID: models.TypeDay1, Price: 1500, AllowedDays: []models.Day{models.Day1}, MaxScans: 1},
		Config{ID: models.TypeDay2, Price: 1500, AllowedDays: []models.Day{models.Day2}, MaxScans: 1},
		Config{ID: models.TypeCombo, Price: 2500, AllowedDays: []models.Day{models.Day1, models.Day2}, MaxScans: 2},
	)
}

// ConfigFor returns the configuration for the given type. The returned
// AllowedDays slice is a copy; callers can stamp it onto tickets without
// aliasing registry state.
func (r *Registry) ConfigFor(t models.TicketType) (Config, error) {
	c, ok := r.configs[t]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownTicketType, t)
	}
	days := make([]models.Day, len(c.AllowedDays))
	copy(days, c.AllowedDays)
	c.AllowedDays = days
	return c, nil
}

// Types lists the registered ticket types.
func (r *Registry) Types() []models.TicketType {
	types := make([]models.TicketType, 0, len(r.configs))
	for t := range r.configs {
		types = append(types, t)
	}
	return types
}
