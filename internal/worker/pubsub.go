package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Trip event types understood by the handler.
const (
	EventTripStopsChanged = "trip.stops_changed"
	EventTripsWarm        = "trips.warm"
)

var errMalformedEvent = errors.New("malformed trip event")

// PubSubHandler consumes trip events and warms the route cache for the
// affected trips.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	warmJob          *WarmJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	WarmJob          *WarmJob
	Logger           zerolog.Logger
}

// TripEvent is a trip change notification published by the trip editor.
type TripEvent struct {
	EventType string   `json:"event_type"`
	TripID    string   `json:"trip_id,omitempty"`
	TripIDs   []string `json:"trip_ids,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		warmJob:          cfg.WarmJob,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()
		h.handleMessage(ctx, logger, msg.Data, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// acker is the acknowledgement surface of *pubsub.Message.
type acker interface {
	Ack()
	Nack()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, logger zerolog.Logger, data []byte, msg acker) {
	startTime := time.Now()

	logger.Debug().Msg("received pubsub message")

	event, err := parseTripEvent(data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var tripIDs []string
	switch event.EventType {
	case EventTripStopsChanged:
		tripIDs = []string{event.TripID}
	case EventTripsWarm:
		tripIDs = event.TripIDs
	default:
		logger.Warn().Str("event_type", event.EventType).Msg("unknown event type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	result := h.warmJob.Run(ctx, tripIDs)
	if result.Failed > 0 {
		logger.Error().
			Str("event_type", event.EventType).
			Int("failed", result.Failed).
			Msg("warm failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("event_type", event.EventType).
		Int("trips", result.Trips).
		Int("estimated", result.Estimated).
		Dur("duration", time.Since(startTime)).
		Msg("trip event handled")

	msg.Ack()
}

func parseTripEvent(data []byte) (TripEvent, error) {
	var event TripEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return TripEvent{}, fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	switch {
	case event.EventType == "":
		return TripEvent{}, fmt.Errorf("%w: missing event_type", errMalformedEvent)
	case event.EventType == EventTripStopsChanged && event.TripID == "":
		return TripEvent{}, fmt.Errorf("%w: missing trip_id", errMalformedEvent)
	case event.EventType == EventTripsWarm && len(event.TripIDs) == 0:
		return TripEvent{}, fmt.Errorf("%w: missing trip_ids", errMalformedEvent)
	}
	return event, nil
}
