package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

const (
	TopicListingStageChanged = "LISTING_STAGE_CHANGED"
	TopicFeesBurned          = "FEES_BURNED"
)

var topics = map[string]struct{}{
	TopicListingStageChanged: {},
	TopicFeesBurned:          {},
	ports.AnyTopic:           {},
}

// PubSubService notifies the registered webhooks about listing and fee
// events.
type PubSubService interface {
	AddWebhook(ctx context.Context, topic, endpoint, secret string) (string, error)
	RemoveWebhook(ctx context.Context, id string) error
	ListWebhooks(ctx context.Context, topic string) ([]ports.Subscription, error)
	PublishListingStageChangedEvent(
		listing domain.Listing, reserve string, from domain.ListingStage,
	)
	PublishFeesBurnedEvent(burn domain.Burn)
}

type pubsubService struct {
	pubsub ports.PubSub
}

// NewPubSubService returns a new pubsub service. A nil pubsub is allowed, in
// which case events are just dropped.
func NewPubSubService(pubsub ports.PubSub) PubSubService {
	return &pubsubService{pubsub}
}

func (s *pubsubService) AddWebhook(
	_ context.Context, topic, endpoint, secret string,
) (string, error) {
	if s.pubsub == nil {
		return "", ErrPubSubNotConfigured
	}
	if _, ok := topics[topic]; !ok {
		return "", fmt.Errorf("%w: unknown topic %s", domain.ErrInvalidArgument, topic)
	}
	return s.pubsub.Subscribe(topic, endpoint, secret)
}

func (s *pubsubService) RemoveWebhook(_ context.Context, id string) error {
	if s.pubsub == nil {
		return ErrPubSubNotConfigured
	}
	return s.pubsub.Unsubscribe(ports.UnspecifiedTopic, id)
}

func (s *pubsubService) ListWebhooks(
	_ context.Context, topic string,
) ([]ports.Subscription, error) {
	if s.pubsub == nil {
		return nil, ErrPubSubNotConfigured
	}
	return s.pubsub.ListSubscriptionsForTopic(topic), nil
}

func (s *pubsubService) PublishListingStageChangedEvent(
	listing domain.Listing, reserve string, from domain.ListingStage,
) {
	payload := map[string]interface{}{
		"event":   TopicListingStageChanged,
		"asset":   listing.Asset,
		"reserve": reserve,
		"from":    from.String(),
		"to":      listing.Stage.String(),
		"date":    time.Now().Format(time.RFC3339),
	}
	s.publish(TopicListingStageChanged, payload)
}

func (s *pubsubService) PublishFeesBurnedEvent(burn domain.Burn) {
	payload := map[string]interface{}{
		"event":   TopicFeesBurned,
		"id":      burn.ID,
		"reserve": burn.Reserve,
		"amount":  burn.Amount.String(),
		"volume":  burn.Volume.String(),
		"rate":    burn.Rate.String(),
		"date":    time.Unix(burn.Timestamp, 0).Format(time.RFC3339),
	}
	s.publish(TopicFeesBurned, payload)
}

func (s *pubsubService) publish(topic string, payload map[string]interface{}) {
	if s.pubsub == nil {
		return
	}
	message, _ := json.Marshal(payload)

	go func() {
		if err := s.pubsub.Publish(topic, string(message)); err != nil {
			log.WithError(err).WithField("topic", topic).Warn(
				"an error occured while publishing message",
			)
		}
	}()
}
