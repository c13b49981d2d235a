package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/maptrace/internal/core/ports"
	"github.com/samirrijal/maptrace/internal/core/usecases"
)

// Pinger is implemented by backing stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Distance   *usecases.DistanceService
	Location   *usecases.LocationHashService
	Fragments  *usecases.FragmentService
	SavedPaths *usecases.SavedPathService

	// Events feeds the WebSocket relay; nil disables /ws.
	Events ports.SessionSubscriber
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger

	// PublicURL is the page share links and QR codes point at.
	PublicURL string
	Version   string
}
