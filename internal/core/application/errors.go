package application

import (
	"errors"
	"fmt"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

var (
	// ErrMissingRepoManager ...
	ErrMissingRepoManager = errors.New("missing repository manager")
	// ErrMissingRegistry ...
	ErrMissingRegistry = fmt.Errorf("%w: missing network registry", domain.ErrInvalidArgument)
	// ErrMissingOrderbookFactory ...
	ErrMissingOrderbookFactory = fmt.Errorf("%w: missing order book factory", domain.ErrInvalidArgument)
	// ErrMissingPriceOracle ...
	ErrMissingPriceOracle = fmt.Errorf("%w: missing price oracle", domain.ErrInvalidArgument)
	// ErrMissingRateOracle ...
	ErrMissingRateOracle = fmt.Errorf("%w: missing governance rate oracle", domain.ErrInvalidArgument)
	// ErrInvalidRegistryIndex ...
	ErrInvalidRegistryIndex = fmt.Errorf("%w: registry index must not be negative", domain.ErrInvalidArgument)
	// ErrUnknownDBType ...
	ErrUnknownDBType = errors.New("unknown db type")
)

// ErrPubSubNotConfigured is returned when managing webhooks without a pubsub
// service.
var ErrPubSubNotConfigured = errors.New("pubsub service is not configured")
