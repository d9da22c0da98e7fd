package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TradesProcessed counts trades applied to the portfolio by side (buy/sell)
var TradesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stockfolio_trades_processed_total",
		Help: "Total number of trades applied to user portfolios",
	},
	[]string{"side"},
)

// TradeLatency records the latency distribution of the trade
// read-modify-write path, including the store round trips
var TradeLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "stockfolio_trade_latency_seconds",
		Help:    "Latency in seconds to apply a single trade",
		Buckets: prometheus.DefBuckets,
	},
)

// Database connection pool metrics
var (
	DBOpenConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockfolio_db_open_connections",
			Help: "Number of open connections in the DB pool",
		},
	)

	DBIdleConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockfolio_db_idle_connections",
			Help: "Number of idle connections in the DB pool",
		},
	)

	DBInUseConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockfolio_db_in_use_connections",
			Help: "Number of in-use connections in the DB pool",
		},
	)
)

func init() {
	prometheus.MustRegister(TradesProcessed, TradeLatency)
	prometheus.MustRegister(DBOpenConns, DBIdleConns, DBInUseConns)
}
