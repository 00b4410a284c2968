package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ticketdb",
	Subsystem: "store",
	Name:      "ops_total",
	Help:      "Store operations by kind and outcome.",
}, []string{"op", "outcome"})

func observeOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	opsTotal.WithLabelValues(op, outcome).Inc()
}
