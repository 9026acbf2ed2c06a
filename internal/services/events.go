package services

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Routing keys of published domain events.
const (
	EventAccountCreated = "account.created"
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
)

// EventPublisher sends a domain event to the message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// publishEvent is best effort: a broker failure is logged and never fails the request.
func publishEvent(log *zap.Logger, publisher EventPublisher, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		log.Debug("event publisher is not configured, skipping event", zap.String("event", routingKey))
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn("failed to marshal event", zap.String("event", routingKey), zap.Error(err))
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		log.Warn("failed to publish event", zap.String("event", routingKey), zap.Error(err))
	}
}
