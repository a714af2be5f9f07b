package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var invocations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "smarthome_invocations_total",
	Help: "The total number of direct methods invoked on the device",
}, []string{"method", "outcome"})
