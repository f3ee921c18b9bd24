// Package ratelimit throttles catalog requests on the client side and tracks
// the quota the catalog reports in X-RateLimit-* headers, so paging quickly
// through the browser does not exhaust the public API's allowance.
package ratelimit

import (
	"time"
)

// Quota header names.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for quota decisions.
const (
	// QuotaThresholdCritical refuses requests when fewer requests than this remain.
	QuotaThresholdCritical = 2

	// QuotaThresholdWarning logs and counts throttling below this value.
	QuotaThresholdWarning = 10
)

// QuotaState is the last quota the catalog reported.
type QuotaState struct {
	// Known is false until a response carried quota headers.
	Known bool `json:"known"`

	// Limit is the size of the quota window, 0 when not reported.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was taken from a response.
	LastUpdate time.Time `json:"last_update"`
}

// NeedsCriticalBlock returns true if requests should be refused until ResetAt.
func (s QuotaState) NeedsCriticalBlock() bool {
	return s.Known && s.Remaining < QuotaThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true when the quota is low but not exhausted.
func (s QuotaState) NeedsThrottling() bool {
	return s.Known && s.Remaining < QuotaThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the quota resets.
// Returns 0 if the reset time has already passed.
func (s QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
