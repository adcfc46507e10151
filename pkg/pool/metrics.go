package pool

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var poolsOpenedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "duckgorm_pools_opened_total",
	Help: "Number of connection pools opened, by URL shape",
}, []string{"kind"})

var prePingFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "duckgorm_pre_ping_failures_total",
	Help: "Number of pooled connections discarded by the pre-ping check",
}, []string{"kind"})

// ObserveOpened records that a pool with policy p was opened.
func ObserveOpened(p Policy) {
	poolsOpenedCounter.WithLabelValues(p.Kind.String()).Inc()
}

// ObservePrePingFailure records a connection discarded before reuse.
func ObservePrePingFailure(p Policy) {
	prePingFailuresCounter.WithLabelValues(p.Kind.String()).Inc()
}

// Collector exposes the database/sql statistics of db under the label
// db_name=name.
func Collector(db *sql.DB, name string) prometheus.Collector {
	return collectors.NewDBStatsCollector(db, name)
}

// Register adds the stats collector for db to reg.
func Register(reg prometheus.Registerer, db *sql.DB, name string) error {
	return reg.Register(Collector(db, name))
}
