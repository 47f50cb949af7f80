package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed password logins."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Password logins rejected by the rate limiter."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Rejected refresh exchanges."},
	{ID: goSession.MetricAuthenticateSuccess, Name: "gosession_authenticate_success_total", Help: "Accepted credentials."},
	{ID: goSession.MetricAuthenticateFailure, Name: "gosession_authenticate_failure_total", Help: "Rejected credentials."},
	{ID: goSession.MetricRevokedTokenRejected, Name: "gosession_revoked_token_rejected_total", Help: "Credentials rejected because their token ID was revoked."},
	{ID: goSession.MetricStaleCredentialRejected, Name: "gosession_stale_credential_rejected_total", Help: "Credentials rejected by the logout-all watermark."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Single-credential logouts."},
	{ID: goSession.MetricLogoutAll, Name: "gosession_logout_all_total", Help: "Logout-everywhere operations."},
	{ID: goSession.MetricSignupSuccess, Name: "gosession_signup_success_total", Help: "Created accounts."},
	{ID: goSession.MetricSignupDuplicate, Name: "gosession_signup_duplicate_total", Help: "Signups rejected as duplicate."},
	{ID: goSession.MetricOTPIssued, Name: "gosession_otp_issued_total", Help: "Issued confirmation codes."},
	{ID: goSession.MetricConfirmSuccess, Name: "gosession_confirm_success_total", Help: "Confirmed accounts."},
	{ID: goSession.MetricConfirmFailure, Name: "gosession_confirm_failure_total", Help: "Rejected confirmation attempts."},
	{ID: goSession.MetricConfirmRateLimited, Name: "gosession_confirm_rate_limited_total", Help: "Confirmation attempts rejected by the rate limiter."},
	{ID: goSession.MetricNotificationSent, Name: "gosession_notification_sent_total", Help: "Delivered confirmation notifications."},
	{ID: goSession.MetricNotificationFailed, Name: "gosession_notification_failed_total", Help: "Failed confirmation notifications."},
	{ID: goSession.MetricNotificationDropped, Name: "gosession_notification_dropped_total", Help: "Notifications dropped by a full delivery queue."},
	{ID: goSession.MetricBackendUnavailable, Name: "gosession_backend_unavailable_total", Help: "Operations failed by store errors or cancellation."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricAuthenticateLatency, Name: "gosession_authenticate_latency_seconds", Help: "Authenticate latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more bucket for everything above the last bound.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, "inf" last.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// AuditDroppedName and NotificationsDroppedName are the backpressure counters
// read from the engine outside the snapshot.
const (
	AuditDroppedName         = "gosession_audit_dropped_total"
	AuditDroppedHelp         = "Audit events dropped by dispatcher backpressure."
	NotificationsDroppedName = "gosession_notification_queue_dropped_total"
	NotificationsDroppedHelp = "Notifications the engine could not enqueue."
)

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
