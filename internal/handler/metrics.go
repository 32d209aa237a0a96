package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scanOutcomes counts scans by resolved outcome so a misbehaving scanner or a
// badly scheduled event shows up on the dashboard.
var scanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventqr_scan_outcomes_total",
	Help: "Scan resolutions by outcome.",
}, []string{"outcome"})
