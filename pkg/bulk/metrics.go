package bulk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var bulkRowsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "duckgorm_bulk_rows_total",
	Help: "Number of rows written by bulk inserts, by path",
}, []string{"path"})

var bulkErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "duckgorm_bulk_errors_total",
	Help: "Number of failed bulk inserts, by path",
}, []string{"path"})
