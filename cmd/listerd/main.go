package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/config"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
	krakenoracle "github.com/tdex-network/reserve-lister/internal/infrastructure/oracle/kraken"
	staticoracle "github.com/tdex-network/reserve-lister/internal/infrastructure/oracle/static"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/orderbook"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/pubsub"
	"github.com/tdex-network/reserve-lister/internal/infrastructure/registry"
	httpinterface "github.com/tdex-network/reserve-lister/internal/interfaces/http"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to initialize config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	listerAddress := config.GetString(config.ListerAddressKey)
	adminAddress := config.GetString(config.AdminAddressKey)

	network, err := registry.NewNetwork(
		config.GetString(config.RegistryAddressKey), adminAddress, listerAddress,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize network registry")
	}
	factory, err := orderbook.NewFactory(
		config.GetString(config.OrderbookFactoryAddressKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize order book factory")
	}

	priceOracle, rateOracle, stopOracles, err := initOracles()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize oracles")
	}

	webhooks, err := pubsub.NewService(config.GetInt(config.WebhookRequestsPerSecondKey))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize webhook pubsub")
	}

	appConfig := &application.Config{
		DBType:       config.GetString(config.DBTypeKey),
		DBConfig:     config.GetDbDir(),
		AdminAddress: adminAddress,
		RateOracle:   rateOracle,
		PubSub:       webhooks,
		Lister: application.ListerConfig{
			Address:            listerAddress,
			Registry:           network,
			OrderbookFactory:   factory,
			PriceOracle:        priceOracle,
			GovernanceToken:    config.GetString(config.GovernanceTokenKey),
			UnsupportedAssets:  config.GetList(config.UnsupportedAssetsKey),
			MaxOrdersPerTrade:  uint32(config.GetInt(config.MaxOrdersPerTradeKey)),
			MinListingValueUsd: config.GetDecimal(config.MinListingValueUsdKey),
		},
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid application config")
	}

	ctx, cancel := context.WithCancel(context.Background())

	feeLedgerSvc := appConfig.FeeLedgerService()
	if err := feeLedgerSvc.Init(ctx); err != nil {
		log.WithError(err).Fatal("failed to initialize fee ledger")
	}
	if err := feeLedgerSvc.AddOperator(ctx, adminAddress, listerAddress); err != nil {
		log.WithError(err).Fatal("failed to register lister as fee ledger operator")
	}

	pubsubSvc := appConfig.PubSubService()
	for _, endpoint := range config.GetList(config.WebhookEndpointsKey) {
		if _, err := pubsubSvc.AddWebhook(
			ctx, ports.AnyTopic, endpoint, config.GetString(config.WebhookSecretKey),
		); err != nil {
			log.WithError(err).Fatalf("failed to add webhook %s", endpoint)
		}
	}

	go refreshRateLoop(
		ctx, feeLedgerSvc, config.GetSeconds(config.RateRefreshIntervalKey),
	)

	router := httpinterface.NewRouter(
		appConfig.ListerService(), appConfig.ReserveService(), feeLedgerSvc,
		pubsubSvc, []byte(config.GetString(config.AuthSecretKey)),
		config.GetInt(config.RequestsPerSecondKey),
	)
	httpSvc, err := httpinterface.NewService(
		fmt.Sprintf(":%d", config.GetInt(config.HTTPPortKey)), router,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize http interface")
	}

	if err := httpSvc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}

	log.Info("reserve lister daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigChan

	log.Info("shutting down daemon")

	httpSvc.Stop()
	cancel()
	stopOracles()
	appConfig.RepoManager().Close()

	log.Info("exiting")
}

// initOracles returns the base asset USD price oracle and the governance rate
// oracle, along with a function to stop them.
func initOracles() (ports.RateOracle, ports.RateOracle, func(), error) {
	priceOracleAddr := config.GetString(config.UsdPriceOracleAddressKey)
	rateOracleAddr := config.GetString(config.GovernanceRateOracleAddressKey)

	if config.GetString(config.OracleTypeKey) == config.OracleStatic {
		priceOracle := staticoracle.NewOracle(
			priceOracleAddr,
			mathutil.ToPrecisionUnits(config.GetDecimal(config.StaticUsdPriceKey)),
		)
		rateOracle := staticoracle.NewOracle(
			rateOracleAddr,
			mathutil.ToPrecisionUnits(config.GetDecimal(config.StaticGovernanceRateKey)),
		)
		return priceOracle, rateOracle, func() {}, nil
	}

	maxAge := config.GetSeconds(config.OracleMaxAgeKey)
	priceOracle, err := krakenoracle.NewOracle(
		priceOracleAddr, config.GetString(config.UsdPriceTickerKey), maxAge,
	)
	if err != nil {
		return nil, nil, nil, err
	}
	rateOracle, err := krakenoracle.NewOracle(
		rateOracleAddr, config.GetString(config.GovernanceRateTickerKey), maxAge,
	)
	if err != nil {
		return nil, nil, nil, err
	}

	for _, oracle := range []*krakenoracle.Oracle{priceOracle, rateOracle} {
		oracle := oracle
		go func() {
			if err := oracle.Start(); err != nil {
				log.WithError(err).Warnf("oracle %s stopped", oracle.Address())
			}
		}()
	}
	stop := func() {
		priceOracle.Stop()
		rateOracle.Stop()
	}
	return priceOracle, rateOracle, stop, nil
}

// refreshRateLoop periodically caches the governance rate into the fee
// ledger until ctx is canceled.
func refreshRateLoop(
	ctx context.Context, svc application.FeeLedgerService, interval time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.RefreshRate(ctx); err != nil {
				log.WithError(err).Warn("failed to refresh governance rate")
			}
		}
	}
}
