// Package metrics exposes daemon activity as Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce    sync.Once
	eventsTotal     *prometheus.CounterVec
	pollsTotal      *prometheus.CounterVec
	callTransitions *prometheus.CounterVec
	presenceTotal   *prometheus.CounterVec
	noticesTotal    *prometheus.CounterVec
	linkStatus      *prometheus.GaugeVec
)

// Register initialises the collectors. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_events_total",
			Help: "Events published on the daemon bus.",
		}, []string{"kind"})

		pollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_polls_total",
			Help: "Message polls by outcome.",
		}, []string{"outcome"})

		callTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_call_transitions_total",
			Help: "Local call state transitions.",
		}, []string{"from", "to"})

		presenceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_presence_updates_total",
			Help: "Presence updates applied.",
		}, []string{"status"})

		noticesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_notices_total",
			Help: "Notices raised to the user.",
		}, []string{"level"})

		linkStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "huddle_link_status",
			Help: "1 for the current daemon link status, 0 otherwise.",
		}, []string{"status"})

		prometheus.MustRegister(eventsTotal, pollsTotal, callTransitions, presenceTotal, noticesTotal, linkStatus)
	})
}

// Events exposes the bus event counter.
func Events() *prometheus.CounterVec {
	Register()
	return eventsTotal
}

// Polls exposes the poll outcome counter.
func Polls() *prometheus.CounterVec {
	Register()
	return pollsTotal
}

// CallTransitions exposes the call transition counter.
func CallTransitions() *prometheus.CounterVec {
	Register()
	return callTransitions
}

// PresenceUpdates exposes the presence update counter.
func PresenceUpdates() *prometheus.CounterVec {
	Register()
	return presenceTotal
}

// Notices exposes the notice counter.
func Notices() *prometheus.CounterVec {
	Register()
	return noticesTotal
}

// LinkStatus exposes the link status gauge.
func LinkStatus() *prometheus.GaugeVec {
	Register()
	return linkStatus
}
