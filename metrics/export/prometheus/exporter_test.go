package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/account"
)

type fakeSource struct {
	snapshot      goSession.MetricsSnapshot
	dropped       uint64
	notifyDropped uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }
func (f fakeSource) NotificationsDropped() uint64               { return f.notifyDropped }

func sampleSource() fakeSource {
	return fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:         7,
				goSession.MetricRevokedTokenRejected: 3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped:       2,
		notifyDropped: 1,
	}
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollectorFromSource(sampleSource())

	expected := `
# HELP gosession_login_success_total Successful logins.
# TYPE gosession_login_success_total counter
gosession_login_success_total 7
# HELP gosession_revoked_token_rejected_total Credentials rejected because their token ID was revoked.
# TYPE gosession_revoked_token_rejected_total counter
gosession_revoked_token_rejected_total 3
# HELP gosession_audit_dropped_total Audit events dropped by dispatcher backpressure.
# TYPE gosession_audit_dropped_total counter
gosession_audit_dropped_total 2
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gosession_login_success_total",
		"gosession_revoked_token_rejected_total",
		"gosession_audit_dropped_total",
	)
	require.NoError(t, err)
}

func TestCollectorHistogramIsCumulative(t *testing.T) {
	c := NewCollectorFromSource(sampleSource())

	expected := `
# HELP gosession_authenticate_latency_seconds Authenticate latency.
# TYPE gosession_authenticate_latency_seconds histogram
gosession_authenticate_latency_seconds_bucket{le="0.005"} 1
gosession_authenticate_latency_seconds_bucket{le="0.01"} 3
gosession_authenticate_latency_seconds_bucket{le="0.025"} 6
gosession_authenticate_latency_seconds_bucket{le="0.05"} 10
gosession_authenticate_latency_seconds_bucket{le="0.1"} 15
gosession_authenticate_latency_seconds_bucket{le="0.25"} 21
gosession_authenticate_latency_seconds_bucket{le="0.5"} 28
gosession_authenticate_latency_seconds_bucket{le="+Inf"} 36
gosession_authenticate_latency_seconds_sum 0
gosession_authenticate_latency_seconds_count 36
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected), "gosession_authenticate_latency_seconds")
	require.NoError(t, err)
}

func TestCollectorLint(t *testing.T) {
	problems, err := testutil.CollectAndLint(NewCollectorFromSource(sampleSource()))
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	engine, err := goSession.New().
		WithSecrets(goSession.SecretsConfig{
			UserAccess:   []byte("prom-user-access-0123456789abcdef01"),
			UserRefresh:  []byte("prom-user-refresh-0123456789abcdef01"),
			AdminAccess:  []byte("prom-admin-access-0123456789abcdef01"),
			AdminRefresh: []byte("prom-admin-refresh-0123456789abcdef01"),
		}).
		WithRedis(redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})).
		WithAccountStore(account.NewMemoryStore()).
		WithMetricsEnabled(true).
		Build()
	require.NoError(t, err)
	defer engine.Close()

	srv := httptest.NewServer(Handler(NewCollector(engine)))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "gosession_login_success_total 0")
	assert.Contains(t, string(body), "gosession_notification_queue_dropped_total 0")
}
