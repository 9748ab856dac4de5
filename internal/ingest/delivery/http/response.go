package http

import (
	"encoding/json"
	"net/http"

	"web-analytics-service/pkg/problemdetails"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeProblem writes an RFC 7807 Problem Details response.
func writeProblem(w http.ResponseWriter, problem *problemdetails.ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	json.NewEncoder(w).Encode(problem)
}

// TrackResponse is the beacon response body. Success=false with a message is
// the soft-fail for untracked sites and still ships with status 200 so the
// embedding page does not log a client-side error.
type TrackResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
}

// SiteResponse is returned by site registration.
type SiteResponse struct {
	ID        int64  `json:"id"`
	Domain    string `json:"domain"`
	CreatedAt int64  `json:"created_at"`
}

// BreakdownResponse is a single breakdown row in a summary.
type BreakdownResponse struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// SummaryResponse holds per-site aggregates for a reporting window.
type SummaryResponse struct {
	Domain         string              `json:"domain"`
	TotalVisits    int64               `json:"total_visits"`
	UniqueVisitors int64               `json:"unique_visitors"`
	Countries      []BreakdownResponse `json:"countries"`
	Browsers       []BreakdownResponse `json:"browsers"`
	Referrers      []BreakdownResponse `json:"referrers"`
	Pages          []BreakdownResponse `json:"pages"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
}
