package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_resolved_total",
		Help: "Payment resolution attempts by outcome.",
	}, []string{"source", "outcome"})

	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_confirmed_total",
		Help: "Bookings confirmed after verified payment.",
	})

	TicketsRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_redeemed_total",
		Help: "Ticket redemption attempts by result.",
	}, []string{"result"})
)
