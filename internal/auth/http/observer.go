package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
)

// GateObserver counts every gate decision per permission.
func GateObserver(m *metricsx.Metrics) httpx.GateObserver {
	return func(permission string, d httpx.Decision) {
		switch d.Status() {
		case http.StatusOK:
			m.ObserveDecision(permission, metricsx.DecisionAllow)
		case http.StatusForbidden:
			m.ObserveDecision(permission, metricsx.DecisionDeny)
		default:
			m.ObserveDecision(permission, metricsx.DecisionUnauthenticated)
		}
	}
}
