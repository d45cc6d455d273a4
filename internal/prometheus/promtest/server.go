package promtest

import (
	"math"
	"net/http/httptest"
	"testing"
	"time"
)

// NewServer starts an httptest server for a backend and closes it when the
// test ends.
func NewServer(t testing.TB, metrics ...Metric) (*Backend, *httptest.Server) {
	t.Helper()
	b := NewBackend(metrics...)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

// wave oscillates between lo and hi with the given period.
func wave(lo, hi float64, period time.Duration, phase float64) func(time.Time) float64 {
	return func(t time.Time) float64 {
		x := float64(t.Unix())/period.Seconds()*2*math.Pi + phase
		return lo + (hi-lo)*(math.Sin(x)+1)/2
	}
}

// counter grows by rate per second from zero at the unix epoch.
func counter(rate float64) func(time.Time) float64 {
	return func(t time.Time) float64 {
		return math.Floor(float64(t.Unix()) * rate)
	}
}

// DemoMetrics returns a node/app metric set resembling a small host running
// one web service.
func DemoMetrics() []Metric {
	node := func(name string, fn func(time.Time) float64) Metric {
		return Metric{Name: name, Labels: map[string]string{"instance": "fake-server:9100", "job": "node"}, Value: fn}
	}
	app := func(name string, extra map[string]string, fn func(time.Time) float64) Metric {
		labels := map[string]string{"instance": "fake-server:8080", "job": "app"}
		for k, v := range extra {
			labels[k] = v
		}
		return Metric{Name: name, Labels: labels, Value: fn}
	}
	const gib = 1 << 30

	return []Metric{
		{Name: "up", Labels: map[string]string{"instance": "fake-server:9100", "job": "node"}, Value: Constant(1)},
		{Name: "up", Labels: map[string]string{"instance": "fake-server:8080", "job": "app"}, Value: Constant(1)},
		node("node_cpu_usage_percent", wave(15, 95, 10*time.Minute, 0)),
		node("cpu_usage_percent", wave(15, 95, 10*time.Minute, 0)),
		node("node_memory_usage_percent", wave(40, 70, 30*time.Minute, 1)),
		node("node_memory_MemTotal_bytes", Constant(16*gib)),
		node("node_memory_MemAvailable_bytes", wave(4*gib, 9*gib, 30*time.Minute, 1)),
		node("memory_used_bytes", wave(7*gib, 12*gib, 30*time.Minute, 1)),
		node("node_load1", wave(0.2, 3.5, 5*time.Minute, 0)),
		node("node_load5", wave(0.5, 2.5, 15*time.Minute, 0)),
		node("node_load15", wave(0.8, 1.8, 45*time.Minute, 0)),
		node("node_boot_time_seconds", Constant(float64(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()))),
		{Name: "node_filesystem_size_bytes", Labels: map[string]string{"instance": "fake-server:9100", "job": "node", "mountpoint": "/", "fstype": "ext4"}, Value: Constant(500 * gib)},
		{Name: "node_filesystem_avail_bytes", Labels: map[string]string{"instance": "fake-server:9100", "job": "node", "mountpoint": "/", "fstype": "ext4"}, Value: Constant(175 * gib)},
		app("http_requests_total", map[string]string{"method": "GET", "status": "200"}, counter(12)),
		app("http_requests_total", map[string]string{"method": "POST", "status": "200"}, counter(5)),
		app("http_requests_total", map[string]string{"method": "GET", "status": "500"}, counter(0.3)),
		app("http_request_duration_seconds_sum", nil, counter(0.9)),
		app("http_request_duration_seconds_count", nil, counter(17)),
	}
}
