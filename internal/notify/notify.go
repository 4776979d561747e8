// Package notify delivers signal and outcome messages to chat endpoints.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"levelbot-go/internal/config"
	"levelbot-go/internal/metrics"
)

// Notifier is the fire-and-forget sink the engine talks to. Send reports delivery success;
// failures are already logged by the time it returns.
type Notifier interface {
	Send(ctx context.Context, text string) bool
}

// Provider is one concrete delivery channel.
type Provider interface {
	Name() string
	Deliver(ctx context.Context, text string) error
}

// Manager fans messages out to every provider.
type Manager struct {
	log       zerolog.Logger
	providers []Provider
}

// NewManager wraps the given providers.
func NewManager(log zerolog.Logger, providers ...Provider) *Manager {
	return &Manager{log: log, providers: providers}
}

// Send delivers text to all providers and reports whether every one succeeded.
func (m *Manager) Send(ctx context.Context, text string) bool {
	ok := true
	for _, p := range m.providers {
		if err := p.Deliver(ctx, text); err != nil {
			ok = false
			metrics.NotificationsFailed.WithLabelValues(p.Name()).Inc()
			m.log.Warn().Err(err).Str("provider", p.Name()).Msg("notification failed")
		}
	}
	return ok
}

// FromConfig builds the provider selected by cfg.
func FromConfig(cfg config.Notifier, log zerolog.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "telegram":
		return NewTelegram(cfg.Endpoint, cfg.Destination, nil), nil
	case "discord":
		return NewDiscord(cfg.Endpoint, nil), nil
	case "log":
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.Provider)
	}
}
