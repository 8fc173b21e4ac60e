package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

// numOfOrderLists is the number of order lists, one per side, a reserve
// is initialized with.
const numOfOrderLists = 2

var reserveCodeHash = crypto.Keccak256([]byte("permissionless-orderbook-reserve"))

// ListerService drives assets through the listing stages.
type ListerService interface {
	// AddAsset creates a new reserve for the asset and returns its address.
	AddAsset(ctx context.Context, asset string) (string, error)
	// InitAsset initializes the reserve of an added asset.
	InitAsset(ctx context.Context, asset string) error
	// ListAsset makes the reserve of an initialized asset visible in the
	// network registry.
	ListAsset(ctx context.Context, asset string) error
	// UnlistAsset removes the reserve of a listed asset from the network
	// registry, once the governance rate moved enough to invalidate its
	// stake.
	UnlistAsset(ctx context.Context, asset string, registryIndex int) error
	// QueryStage returns the current reserve and stage of the asset.
	QueryStage(ctx context.Context, asset string) (string, domain.ListingStage, error)
	GetListing(ctx context.Context, asset string) (*domain.Listing, error)
	ListListings(ctx context.Context) ([]domain.Listing, error)
	Info() ListerInfo
}

// ListerConfig is the immutable configuration of the lister.
type ListerConfig struct {
	// Address is the identity the lister uses when calling the registry and
	// the fee ledger.
	Address            string
	Registry           ports.NetworkRegistry
	OrderbookFactory   ports.OrderbookFactory
	PriceOracle        ports.RateOracle
	GovernanceToken    string
	UnsupportedAssets  []string
	MaxOrdersPerTrade  uint32
	MinListingValueUsd decimal.Decimal
}

func (c ListerConfig) validate() error {
	if !domain.IsValidAddress(c.Address) {
		return fmt.Errorf("%w: lister", domain.ErrInvalidAddress)
	}
	if c.Registry == nil {
		return ErrMissingRegistry
	}
	if c.OrderbookFactory == nil {
		return ErrMissingOrderbookFactory
	}
	if c.PriceOracle == nil {
		return ErrMissingPriceOracle
	}
	refs := map[string]string{
		"registry":           c.Registry.Address(),
		"order book factory": c.OrderbookFactory.Address(),
		"price oracle":       c.PriceOracle.Address(),
		"governance token":   c.GovernanceToken,
	}
	for name, addr := range refs {
		if !domain.IsValidAddress(addr) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidAddress, name)
		}
	}
	for _, asset := range c.UnsupportedAssets {
		if !domain.IsValidAddress(asset) {
			return fmt.Errorf("%w: unsupported asset %q", domain.ErrInvalidAddress, asset)
		}
	}
	if c.MaxOrdersPerTrade <= 1 {
		return domain.ErrInvalidMaxOrdersPerTrade
	}
	if !mathutil.IsWholeAmount(c.MinListingValueUsd) {
		return domain.ErrInvalidMinListingValue
	}
	return nil
}

// ListerInfo exposes the configuration of the lister.
type ListerInfo struct {
	Address            string
	Registry           string
	OrderbookFactory   string
	PriceOracle        string
	GovernanceToken    string
	UnsupportedAssets  []string
	BurnFeeBps         uint32
	MaxOrdersPerTrade  uint32
	MinListingValueUsd decimal.Decimal
}

type listerService struct {
	cfg         ListerConfig
	unsupported map[string]struct{}
	repoManager ports.RepoManager
	pubsub      PubSubService
	metrics     *Metrics
}

// NewListerService returns a new lister service, failing if the given
// configuration is not valid.
func NewListerService(
	cfg ListerConfig, repoManager ports.RepoManager, pubsub PubSubService,
) (ListerService, error) {
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if pubsub == nil {
		pubsub = NewPubSubService(nil)
	}

	cfg.Address = domain.NormalizeAddress(cfg.Address)
	cfg.GovernanceToken = domain.NormalizeAddress(cfg.GovernanceToken)
	unsupported := make(map[string]struct{})
	unsupportedAssets := make([]string, 0, len(cfg.UnsupportedAssets))
	for _, asset := range cfg.UnsupportedAssets {
		asset = domain.NormalizeAddress(asset)
		if _, ok := unsupported[asset]; ok {
			continue
		}
		unsupported[asset] = struct{}{}
		unsupportedAssets = append(unsupportedAssets, asset)
	}
	cfg.UnsupportedAssets = unsupportedAssets

	return &listerService{
		cfg:         cfg,
		unsupported: unsupported,
		repoManager: repoManager,
		pubsub:      pubsub,
		metrics:     NewMetrics(),
	}, nil
}

func (s *listerService) AddAsset(ctx context.Context, asset string) (string, error) {
	reserveAddress, err := s.addAsset(ctx, asset)
	s.metrics.ListingOperations.WithLabelValues(
		domain.ListingOperationAdd.String(), status(err),
	).Inc()
	return reserveAddress, err
}

func (s *listerService) InitAsset(ctx context.Context, asset string) error {
	err := s.initAsset(ctx, asset)
	s.metrics.ListingOperations.WithLabelValues(
		domain.ListingOperationInit.String(), status(err),
	).Inc()
	return err
}

func (s *listerService) ListAsset(ctx context.Context, asset string) error {
	err := s.listAsset(ctx, asset)
	s.metrics.ListingOperations.WithLabelValues(
		domain.ListingOperationList.String(), status(err),
	).Inc()
	if err == nil {
		s.metrics.ListedAssets.Inc()
	}
	return err
}

func (s *listerService) UnlistAsset(
	ctx context.Context, asset string, registryIndex int,
) error {
	err := s.unlistAsset(ctx, asset, registryIndex)
	s.metrics.ListingOperations.WithLabelValues(
		domain.ListingOperationUnlist.String(), status(err),
	).Inc()
	if err == nil {
		s.metrics.ListedAssets.Dec()
	}
	return err
}

func (s *listerService) QueryStage(
	ctx context.Context, asset string,
) (string, domain.ListingStage, error) {
	listing, err := s.GetListing(ctx, asset)
	if err != nil {
		return "", domain.ListingStageNone, err
	}
	return listing.Reserve, listing.Stage, nil
}

// GetListing returns the listing of the asset. For assets never added, a
// listing in stage NONE is returned. Only malformed addresses are rejected:
// the zero address can never be added, so its stage is always NONE.
func (s *listerService) GetListing(
	ctx context.Context, asset string,
) (*domain.Listing, error) {
	if !common.IsHexAddress(asset) {
		return nil, domain.ErrInvalidAddress
	}
	l, err := domain.NewListing(asset)
	if err != nil {
		return &domain.Listing{
			Asset: domain.NormalizeAddress(asset),
			Stage: domain.ListingStageNone,
		}, nil
	}
	listing, err := s.repoManager.ListingRepository().GetListing(ctx, l.Asset)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return l, nil
	}
	return listing, nil
}

func (s *listerService) ListListings(ctx context.Context) ([]domain.Listing, error) {
	return s.repoManager.ListingRepository().GetAllListings(ctx)
}

func (s *listerService) Info() ListerInfo {
	return ListerInfo{
		Address:            s.cfg.Address,
		Registry:           s.cfg.Registry.Address(),
		OrderbookFactory:   s.cfg.OrderbookFactory.Address(),
		PriceOracle:        s.cfg.PriceOracle.Address(),
		GovernanceToken:    s.cfg.GovernanceToken,
		UnsupportedAssets:  append([]string(nil), s.cfg.UnsupportedAssets...),
		BurnFeeBps:         domain.ReserveBurnFeeBps,
		MaxOrdersPerTrade:  s.cfg.MaxOrdersPerTrade,
		MinListingValueUsd: s.cfg.MinListingValueUsd,
	}
}

func (s *listerService) addAsset(ctx context.Context, asset string) (string, error) {
	if !domain.IsValidAddress(asset) {
		return "", domain.ErrInvalidAddress
	}
	asset = domain.NormalizeAddress(asset)
	if _, ok := s.unsupported[asset]; ok {
		return "", domain.ErrUnsupportedAsset
	}

	var listing *domain.Listing
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			l, err := s.GetListing(ctx, asset)
			if err != nil {
				return nil, err
			}
			if _, err := domain.NextStage(l.Stage, domain.ListingOperationAdd); err != nil {
				return nil, err
			}

			reserveAddress := deriveReserveAddress(s.cfg.Address, asset, l.Generation())
			reserve, err := domain.NewReserve(
				reserveAddress, asset, s.cfg.Address, domain.ReserveBurnFeeBps,
				s.cfg.MaxOrdersPerTrade, s.cfg.MinListingValueUsd, s.contracts(),
			)
			if err != nil {
				return nil, err
			}
			if err := l.Add(reserve.Address); err != nil {
				return nil, err
			}

			if err := s.repoManager.ReserveRepository().AddReserve(
				ctx, reserve,
			); err != nil {
				return nil, err
			}
			if err := s.saveListing(ctx, l); err != nil {
				return nil, err
			}
			listing = l
			return reserve.Address, nil
		},
	)
	if err != nil {
		return "", err
	}

	reserveAddress := res.(string)
	s.logTransition(*listing, reserveAddress, domain.ListingStageNone)
	return reserveAddress, nil
}

func (s *listerService) initAsset(ctx context.Context, asset string) error {
	var listing *domain.Listing
	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			l, err := s.GetListing(ctx, asset)
			if err != nil {
				return nil, err
			}
			if _, err := domain.NextStage(l.Stage, domain.ListingOperationInit); err != nil {
				return nil, err
			}
			reserve, err := s.repoManager.ReserveRepository().GetReserve(ctx, l.Reserve)
			if err != nil {
				return nil, err
			}
			ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
			if err != nil {
				return nil, err
			}
			if !ledger.IsOperator(s.cfg.Address) {
				return nil, fmt.Errorf(
					"%w: lister is not a fee ledger operator", domain.ErrNotAuthorized,
				)
			}
			baseRate := ledger.CachedRate
			if !mathutil.IsWholeAmount(baseRate) {
				return nil, fmt.Errorf(
					"%w: governance rate not available", domain.ErrOracleInvalid,
				)
			}
			usdPrice, valid := s.cfg.PriceOracle.CurrentRate(ctx)
			if !valid || !mathutil.IsWholeAmount(usdPrice) {
				return nil, fmt.Errorf(
					"%w: base asset usd price not available", domain.ErrOracleInvalid,
				)
			}

			if _, err := reserve.ValidateInit(baseRate, usdPrice); err != nil {
				return nil, err
			}
			if err := ledger.RegisterReserve(
				s.cfg.Address, reserve.Address, reserve.BurnFeeBps,
			); err != nil {
				return nil, err
			}
			if err := l.Init(); err != nil {
				return nil, err
			}

			// Order lists are allocated only once every other check passed.
			orderLists := make([]string, 0, numOfOrderLists)
			for i := 0; i < numOfOrderLists; i++ {
				list, err := s.cfg.OrderbookFactory.NewOrderList(ctx, reserve.Address)
				if err != nil {
					return nil, fmt.Errorf("%w: %s", domain.ErrOrderbookFactoryFailed, err)
				}
				orderLists = append(orderLists, list)
			}
			if err := reserve.Init(orderLists, baseRate, usdPrice); err != nil {
				return nil, err
			}

			if err := s.repoManager.ReserveRepository().UpdateReserve(
				ctx, reserve.Address,
				func(_ *domain.Reserve) (*domain.Reserve, error) {
					return reserve, nil
				},
			); err != nil {
				return nil, err
			}
			if err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
				ctx, func(_ *domain.FeeLedger) (*domain.FeeLedger, error) {
					return ledger, nil
				},
			); err != nil {
				return nil, err
			}
			if err := s.saveListing(ctx, l); err != nil {
				return nil, err
			}
			listing = l
			return nil, nil
		},
	); err != nil {
		return err
	}

	s.logTransition(*listing, listing.Reserve, domain.ListingStageAdded)
	return nil
}

func (s *listerService) listAsset(ctx context.Context, asset string) error {
	var listing *domain.Listing
	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			l, err := s.GetListing(ctx, asset)
			if err != nil {
				return nil, err
			}
			if _, err := domain.NextStage(l.Stage, domain.ListingOperationList); err != nil {
				return nil, err
			}
			ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
			if err != nil {
				return nil, err
			}
			if !ledger.IsOperator(s.cfg.Address) {
				return nil, fmt.Errorf(
					"%w: lister is not a fee ledger operator", domain.ErrNotAuthorized,
				)
			}
			if err := s.validateRegistryOperator(ctx); err != nil {
				return nil, err
			}

			// A reserve already listed is the outcome of a previous attempt
			// whose registry call went through while the stage update did not.
			if err := s.cfg.Registry.ListReserve(
				ctx, s.cfg.Address, l.Asset, l.Reserve,
			); err != nil && !errors.Is(err, ports.ErrReserveAlreadyListed) {
				return nil, fmt.Errorf("%w: %s", domain.ErrRegistryRejected, err)
			}

			if err := l.List(); err != nil {
				return nil, err
			}
			if err := s.saveListing(ctx, l); err != nil {
				return nil, err
			}
			listing = l
			return nil, nil
		},
	); err != nil {
		return err
	}

	s.logTransition(*listing, listing.Reserve, domain.ListingStageInit)
	return nil
}

func (s *listerService) unlistAsset(
	ctx context.Context, asset string, registryIndex int,
) error {
	if registryIndex < 0 {
		return ErrInvalidRegistryIndex
	}

	var listing *domain.Listing
	var reserveAddress string
	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			l, err := s.GetListing(ctx, asset)
			if err != nil {
				return nil, err
			}
			if _, err := domain.NextStage(l.Stage, domain.ListingOperationUnlist); err != nil {
				return nil, err
			}
			reserve, err := s.repoManager.ReserveRepository().GetReserve(ctx, l.Reserve)
			if err != nil {
				return nil, err
			}
			ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
			if err != nil {
				return nil, err
			}
			if !reserve.RateDeviationBlocksTrust(ledger.CachedRate) {
				return nil, domain.ErrRateNotEligibleForUnlisting
			}
			if err := s.validateRegistryOperator(ctx); err != nil {
				return nil, err
			}

			reserveAddress = l.Reserve
			if err := s.cfg.Registry.DelistReserve(
				ctx, s.cfg.Address, l.Asset, l.Reserve, registryIndex,
			); err != nil && !errors.Is(err, ports.ErrReserveNotListed) {
				return nil, fmt.Errorf("%w: %s", domain.ErrRegistryRejected, err)
			}

			if err := l.Unlist(); err != nil {
				return nil, err
			}
			if err := s.saveListing(ctx, l); err != nil {
				return nil, err
			}
			listing = l
			return nil, nil
		},
	); err != nil {
		return err
	}

	s.logTransition(*listing, reserveAddress, domain.ListingStageListed)
	return nil
}

func (s *listerService) validateRegistryOperator(ctx context.Context) error {
	isOperator, err := s.cfg.Registry.IsOperator(ctx, s.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrRegistryRejected, err)
	}
	if !isOperator {
		return fmt.Errorf(
			"%w: lister is not a network registry operator", domain.ErrNotAuthorized,
		)
	}
	return nil
}

func (s *listerService) saveListing(ctx context.Context, listing *domain.Listing) error {
	return s.repoManager.ListingRepository().UpdateListing(
		ctx, listing.Asset, func(_ *domain.Listing) (*domain.Listing, error) {
			return listing, nil
		},
	)
}

func (s *listerService) contracts() domain.ReserveContracts {
	return domain.ReserveContracts{
		GovernanceToken:  s.cfg.GovernanceToken,
		Registry:         s.cfg.Registry.Address(),
		Oracle:           s.cfg.PriceOracle.Address(),
		OrderbookFactory: s.cfg.OrderbookFactory.Address(),
	}
}

func (s *listerService) logTransition(
	listing domain.Listing, reserve string, from domain.ListingStage,
) {
	log.WithFields(log.Fields{
		"asset":   listing.Asset,
		"reserve": reserve,
		"from":    from.String(),
		"to":      listing.Stage.String(),
	}).Info("listing stage changed")
	s.pubsub.PublishListingStageChangedEvent(listing, reserve, from)
}

// deriveReserveAddress returns a deterministic address for the reserve of the
// given generation of the asset, so that a reserve re-added after being
// unlisted never collides with any of the previous ones.
func deriveReserveAddress(lister, asset string, generation int) string {
	salt := crypto.Keccak256Hash(
		common.HexToAddress(asset).Bytes(), big.NewInt(int64(generation)).Bytes(),
	)
	return crypto.CreateAddress2(
		common.HexToAddress(lister), salt, reserveCodeHash,
	).Hex()
}
