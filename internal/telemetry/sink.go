package telemetry

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/LukeHalby/pushchat/internal/proto"
)

const (
	// EventHomepageVisit marks the first visit to the chat screen.
	EventHomepageVisit = "homepageVisit"

	endpointChannelType = "CUSTOM"
	endpointOptOut      = "NONE"
)

// Sink reports telemetry once a push token becomes available. Every call is
// fire-and-forget: errors and panics from the analytics client are contained
// here and never reach the caller.
type Sink struct {
	analytics Analytics
	log       *zerolog.Logger
}

// NewSink builds a sink over the given analytics collaborator.
func NewSink(analytics Analytics, logger *zerolog.Logger) *Sink {
	return &Sink{analytics: analytics, log: logger}
}

// OnTokenReady registers the token as the installation's analytics endpoint
// and records the first screen visit. The token is only a delivery address
// here; sender identity is the session's concern.
func (s *Sink) OnTokenReady(ctx context.Context, token string) {
	defer s.contain("token ready")

	if err := s.analytics.UpdateEndpoint(ctx, proto.EndpointUpdate{
		Address:     token,
		ChannelType: endpointChannelType,
		OptOut:      endpointOptOut,
	}); err != nil {
		s.log.Warn().Err(err).Msg("update analytics endpoint")
	}

	if err := s.analytics.Record(ctx, EventHomepageVisit); err != nil {
		s.log.Warn().Err(err).Msg("record analytics event")
	}
}

// Record submits a named event through the same non-propagating boundary.
func (s *Sink) Record(ctx context.Context, eventName string) {
	defer s.contain("record " + eventName)

	if err := s.analytics.Record(ctx, eventName); err != nil {
		s.log.Warn().Err(err).Str("event", eventName).Msg("record analytics event")
	}
}

func (s *Sink) contain(op string) {
	if r := recover(); r != nil {
		s.log.Error().Interface("panic", r).Str("op", op).Msg("analytics call panicked")
	}
}
