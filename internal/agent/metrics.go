package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	methodsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarthome_methods_handled_total",
		Help: "The total number of direct methods handled by the agent",
	}, []string{"method", "status"})

	bulbsSwitched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarthome_light_bulbs_switched_total",
		Help: "The total number of light bulb state changes applied",
	}, []string{"id", "on_state"})
)
