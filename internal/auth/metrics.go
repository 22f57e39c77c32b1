package auth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess    = "success"
	resultFailure    = "failure"
	resultUnmapped   = "unmapped"
	resultDirFailure = "directory_failure"
)

var (
	loginAttempts     *prometheus.CounterVec //nolint:gochecknoglobals
	loginAttemptsOnce sync.Once              //nolint:gochecknoglobals
)

func loginCounter() *prometheus.CounterVec {
	loginAttemptsOnce.Do(func() {
		loginAttempts = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Number of login attempts, differentiated by trust source and result.",
			},
			[]string{"source", "result"},
		)
	})

	return loginAttempts
}

func countLogin(source Source, result string) {
	loginCounter().WithLabelValues(string(source), result).Inc()
}
