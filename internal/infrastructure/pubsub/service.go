package pubsub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
	"github.com/tdex-network/reserve-lister/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 15 * time.Second
	// DefaultRequestsPerSecond caps the webhook requests sent per second.
	DefaultRequestsPerSecond = 20
)

type service struct {
	store      *store
	httpClient *client
	cb         *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
}

// NewService returns a webhook pubsub that delivers messages with at most
// requestsPerSecond POST requests per second. A zero value means default.
func NewService(requestsPerSecond int) (ports.PubSub, error) {
	if requestsPerSecond < 0 {
		return nil, fmt.Errorf("requests per second must not be negative")
	}
	if requestsPerSecond == 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}

	return &service{
		store:      newStore(),
		httpClient: newHTTPClient(defaultRequestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhook"),
		limiter:    ratelimit.New(requestsPerSecond),
	}, nil
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	return ws.store.add(*sub), nil
}

func (ws *service) Unsubscribe(_, id string) error {
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(sub, topic, message) })
	}
	return eg.Wait()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	subs := ws.store.getForTopic(topic)
	if topic != ports.AnyTopic && topic != ports.UnspecifiedTopic {
		subsForAnyTopic := ws.store.getForTopic(ports.AnyTopic)
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) doRequest(sub Subscription, topic, payload string) error {
	ws.limiter.Take()

	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub":   sub.ID,
				"topic": topic,
				"iat":   time.Now().Unix(),
			})
			tokenString, err := token.SignedString([]byte(sub.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(sub.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf(
				"webhook %s responded with status %d: %s", sub.ID, status, resp,
			)
		}
		return nil, nil
	})

	return err
}
