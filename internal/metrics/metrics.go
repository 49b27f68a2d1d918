// Package metrics registers the Prometheus collectors of the vault.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RevealVerifications counts code submissions by gate kind and result
	// ("ok", "invalid", "locked").
	RevealVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mynotes_reveal_verifications_total",
		Help: "One-time code submissions by gate kind and result",
	}, []string{"kind", "result"})

	// DeletionSteps counts deletion saga steps by step and status.
	DeletionSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mynotes_account_deletion_steps_total",
		Help: "Account deletion steps by step and status",
	}, []string{"step", "status"})

	// DecryptFailures counts sealed values that could not be opened.
	DecryptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mynotes_decrypt_failures_total",
		Help: "Sealed values that failed to decrypt, by entity",
	}, []string{"entity"})

	// LoginAttempts counts sign-ins by method and status.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mynotes_login_attempts_total",
		Help: "Sign-in attempts by method and status",
	}, []string{"method", "status"})

	// ActiveSessions is the number of live sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mynotes_active_sessions",
		Help: "Live in-memory sessions",
	})
)
