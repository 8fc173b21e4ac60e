package application

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the Prometheus metrics of the application services.
type Metrics struct {
	ListingOperations *prometheus.CounterVec
	ListedAssets      prometheus.Gauge

	ReserveOperations *prometheus.CounterVec
	TradedVolume      prometheus.Counter

	RateRefreshes  *prometheus.CounterVec
	GovernanceRate prometheus.Gauge
	FeesBurned     prometheus.Counter
	Burns          prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics creates and registers the metrics (singleton pattern).
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ListingOperations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "listing",
					Name:      "operations_total",
					Help:      "Total number of listing stage operations",
				},
				[]string{"operation", "status"},
			),
			ListedAssets: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "lister",
					Subsystem: "listing",
					Name:      "listed_assets",
					Help:      "Number of assets currently listed in the network",
				},
			),
			ReserveOperations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "reserve",
					Name:      "operations_total",
					Help:      "Total number of maker and taker operations on reserves",
				},
				[]string{"operation", "status"},
			),
			TradedVolume: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "reserve",
					Name:      "traded_volume_total",
					Help:      "Total base asset volume traded by all reserves",
				},
			),
			RateRefreshes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "fees",
					Name:      "rate_refreshes_total",
					Help:      "Total number of governance rate refreshes",
				},
				[]string{"status"},
			),
			GovernanceRate: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "lister",
					Subsystem: "fees",
					Name:      "governance_rate",
					Help:      "Cached governance token rate per base asset unit",
				},
			),
			FeesBurned: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "fees",
					Name:      "burned_total",
					Help:      "Total governance token amount burned",
				},
			),
			Burns: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "lister",
					Subsystem: "fees",
					Name:      "burns_total",
					Help:      "Total number of fee burns",
				},
			),
		}
	})
	return metrics
}

func status(err error) string {
	if err != nil {
		return statusFailure
	}
	return statusSuccess
}

func toFloat(amount decimal.Decimal) float64 {
	return mathutil.FromPrecisionUnits(amount).InexactFloat64()
}
