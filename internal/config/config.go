package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// HTTPPortKey is the port where the HTTP interface will listen on
	HTTPPortKey = "HTTP_PORT"
	// RequestsPerSecondKey caps the requests per second served by the HTTP
	// interface, 0 means no limit.
	RequestsPerSecondKey = "REQUESTS_PER_SECOND"
	// AdminAddressKey is the administrator of the fee ledger
	AdminAddressKey = "ADMIN_ADDRESS"
	// ListerAddressKey is the identity of the lister on registry and fee ledger
	ListerAddressKey = "LISTER_ADDRESS"
	// RegistryAddressKey is the address of the trading network registry
	RegistryAddressKey = "REGISTRY_ADDRESS"
	// OrderbookFactoryAddressKey is the address of the order list factory
	OrderbookFactoryAddressKey = "ORDERBOOK_FACTORY_ADDRESS"
	// GovernanceTokenKey is the address of the token staked and burned
	GovernanceTokenKey = "GOVERNANCE_TOKEN"
	// UnsupportedAssetsKey is a comma separated list of assets that cannot be
	// listed
	UnsupportedAssetsKey = "UNSUPPORTED_ASSETS"
	// MaxOrdersPerTradeKey is the max number of open orders per maker
	MaxOrdersPerTradeKey = "MAX_ORDERS_PER_TRADE"
	// MinListingValueUsdKey is the min order value, in USD
	MinListingValueUsdKey = "MIN_LISTING_VALUE_USD"
	// OracleTypeKey switches between static and kraken oracles
	OracleTypeKey = "ORACLE_TYPE"
	// UsdPriceOracleAddressKey is the identity of the base asset USD price oracle
	UsdPriceOracleAddressKey = "USD_PRICE_ORACLE_ADDRESS"
	// GovernanceRateOracleAddressKey is the identity of the governance rate oracle
	GovernanceRateOracleAddressKey = "GOVERNANCE_RATE_ORACLE_ADDRESS"
	// UsdPriceTickerKey is the kraken ticker for the base asset USD price, ie. ETH/USD
	UsdPriceTickerKey = "USD_PRICE_TICKER"
	// GovernanceRateTickerKey is the kraken ticker for the governance rate, ie. ETH/KNC
	GovernanceRateTickerKey = "GOVERNANCE_RATE_TICKER"
	// StaticUsdPriceKey is the base asset USD price used by the static oracle
	StaticUsdPriceKey = "STATIC_USD_PRICE"
	// StaticGovernanceRateKey is the governance rate used by the static oracle
	StaticGovernanceRateKey = "STATIC_GOVERNANCE_RATE"
	// RateRefreshIntervalKey is the interval in seconds between governance
	// rate refreshes
	RateRefreshIntervalKey = "RATE_REFRESH_INTERVAL"
	// OracleMaxAgeKey is the max age in seconds of a kraken rate before it's
	// considered not valid
	OracleMaxAgeKey = "ORACLE_MAX_AGE"
	// WebhookEndpointsKey is a comma separated list of endpoints notified for
	// every event
	WebhookEndpointsKey = "WEBHOOK_ENDPOINTS"
	// WebhookSecretKey is used to sign the webhook requests
	WebhookSecretKey = "WEBHOOK_SECRET"
	// WebhookRequestsPerSecondKey caps the webhook requests sent per second
	WebhookRequestsPerSecondKey = "WEBHOOK_REQUESTS_PER_SECOND"
	// AuthSecretKey is the HS256 secret verifying the bearer tokens of the
	// HTTP interface
	AuthSecretKey = "AUTH_SECRET"

	minAuthSecretLen = 32

	DbLocation = "db"

	OracleStatic = "static"
	OracleKraken = "kraken"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("reserve-lister", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("LISTER")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(HTTPPortKey, 9945)
	vip.SetDefault(RequestsPerSecondKey, 0)
	vip.SetDefault(MaxOrdersPerTradeKey, 5)
	vip.SetDefault(MinListingValueUsdKey, 1000)
	vip.SetDefault(OracleTypeKey, OracleStatic)
	vip.SetDefault(RegistryAddressKey, "0x00000000000000000000000000000000000000a1")
	vip.SetDefault(OrderbookFactoryAddressKey, "0x00000000000000000000000000000000000000a2")
	vip.SetDefault(UsdPriceOracleAddressKey, "0x00000000000000000000000000000000000000a3")
	vip.SetDefault(GovernanceRateOracleAddressKey, "0x00000000000000000000000000000000000000a4")
	vip.SetDefault(RateRefreshIntervalKey, 60)
	vip.SetDefault(OracleMaxAgeKey, 300)
	vip.SetDefault(WebhookRequestsPerSecondKey, 20)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetSeconds returns the value of key, expressed in seconds, as a duration.
func GetSeconds(key string) time.Duration {
	return time.Duration(vip.GetInt64(key)) * time.Second
}

// GetList returns the comma separated values of key, without blanks.
func GetList(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); len(v) > 0 {
			list = append(list, v)
		}
	}
	return list
}

// GetDecimal returns the value of key as decimal, zero if not a number.
func GetDecimal(key string) decimal.Decimal {
	d, err := decimal.NewFromString(vip.GetString(key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the database, empty for in-memory dbs.
func GetDbDir() string {
	if GetString(DBTypeKey) != application.DBBadger {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("unsupported db type %s", GetString(DBTypeKey))
	}

	addresses := []string{
		AdminAddressKey, ListerAddressKey, GovernanceTokenKey, RegistryAddressKey,
		OrderbookFactoryAddressKey, UsdPriceOracleAddressKey,
		GovernanceRateOracleAddressKey,
	}
	for _, key := range addresses {
		if !domain.IsValidAddress(GetString(key)) {
			return fmt.Errorf("%s must be a valid non-zero hex address", key)
		}
	}
	for _, asset := range GetList(UnsupportedAssetsKey) {
		if !domain.IsValidAddress(asset) {
			return fmt.Errorf("invalid unsupported asset %s", asset)
		}
	}

	if GetInt(MaxOrdersPerTradeKey) <= 1 {
		return fmt.Errorf("%s must be greater than 1", MaxOrdersPerTradeKey)
	}
	minListingValue := GetDecimal(MinListingValueUsdKey)
	if !minListingValue.IsPositive() || !minListingValue.IsInteger() {
		return fmt.Errorf("%s must be a positive integer", MinListingValueUsdKey)
	}
	if GetInt(RequestsPerSecondKey) < 0 || GetInt(WebhookRequestsPerSecondKey) < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	if GetInt(RateRefreshIntervalKey) <= 0 {
		return fmt.Errorf("%s must be positive", RateRefreshIntervalKey)
	}

	switch GetString(OracleTypeKey) {
	case OracleStatic:
		for _, key := range []string{StaticUsdPriceKey, StaticGovernanceRateKey} {
			if !GetDecimal(key).IsPositive() {
				return fmt.Errorf("%s must be a positive number", key)
			}
		}
	case OracleKraken:
		for _, key := range []string{UsdPriceTickerKey, GovernanceRateTickerKey} {
			if len(GetString(key)) <= 0 {
				return fmt.Errorf("missing %s", key)
			}
		}
		if GetInt(OracleMaxAgeKey) <= 0 {
			return fmt.Errorf("%s must be positive", OracleMaxAgeKey)
		}
	default:
		return fmt.Errorf("unsupported oracle type %s", GetString(OracleTypeKey))
	}

	if len(GetString(AuthSecretKey)) < minAuthSecretLen {
		return fmt.Errorf("%s must be at least %d characters", AuthSecretKey, minAuthSecretLen)
	}

	if len(GetList(WebhookEndpointsKey)) > 0 && len(GetString(WebhookSecretKey)) <= 0 {
		return fmt.Errorf("%s is required when webhooks are configured", WebhookSecretKey)
	}

	return nil
}

func initDatadir() error {
	if dbDir := GetDbDir(); len(dbDir) > 0 {
		return makeDirectoryIfNotExists(dbDir)
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
