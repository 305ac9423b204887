package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"academy/internal/adapters/http/perf"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code == 0 {
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(code)
	})
}

func TestTiming_RecordsConsoleRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		code       int
		wantStatus int
		wantCount  int64
	}{
		{name: "roster page", method: "GET", path: "/attendance/students", code: http.StatusOK, wantStatus: 200, wantCount: 1},
		{name: "submit redirect", method: "POST", path: "/attendance/coaches/submit", code: http.StatusSeeOther, wantStatus: 303, wantCount: 1},
		{name: "implicit ok", method: "GET", path: "/history/students", code: 0, wantStatus: 200, wantCount: 1},
		{name: "forbidden history", method: "GET", path: "/history/coaches", code: http.StatusForbidden, wantStatus: 403, wantCount: 1},
		{name: "stylesheet skipped", method: "GET", path: "/static/app.css", code: http.StatusOK, wantStatus: 200, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := perf.NewCollector(8)
			rr := httptest.NewRecorder()
			Timing(collector, 0)(statusHandler(tt.code)).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := collector.TotalRecorded(); got != tt.wantCount {
				t.Errorf("recorded %d entries, want %d", got, tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			snap := collector.Snapshot(time.Now().Add(-time.Minute), 5)
			if len(snap.SlowestPaths) != 1 {
				t.Fatalf("slowest paths = %d, want 1", len(snap.SlowestPaths))
			}
			if want := tt.method + " " + tt.path; snap.SlowestPaths[0].Path != want {
				t.Errorf("path = %q, want %q", snap.SlowestPaths[0].Path, want)
			}
			if snap.SlowestPaths[0].AvgMs < 0 {
				t.Errorf("avg = %v, want >= 0", snap.SlowestPaths[0].AvgMs)
			}
		})
	}
}

func TestTiming_NilCollectorStillServes(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil, 0)(statusHandler(http.StatusAccepted)).ServeHTTP(rr, httptest.NewRequest("POST", "/history/students/email", nil))
	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rr.Code)
	}
}

// A panicking handler must still release its recorder and record the entry.
func TestTiming_PanicStillRecords(t *testing.T) {
	collector := perf.NewCollector(4)
	handler := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("roster exploded")
	}))

	defer func() {
		if recover() == nil {
			t.Fatal("panic was swallowed")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("recorded %d entries, want 1", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/attendance/students", nil))
}

func TestTiming_PooledWriterResetsStatus(t *testing.T) {
	collector := perf.NewCollector(4)
	failing := Timing(collector, 0)(statusHandler(http.StatusBadGateway))
	plain := Timing(collector, 0)(statusHandler(0))

	for i := 0; i < 3; i++ {
		first := httptest.NewRecorder()
		failing.ServeHTTP(first, httptest.NewRequest("GET", "/attendance/students/export", nil))
		second := httptest.NewRecorder()
		plain.ServeHTTP(second, httptest.NewRequest("GET", "/dashboard", nil))
		if second.Code != http.StatusOK {
			t.Fatalf("round %d: status = %d after a 502, want 200", i, second.Code)
		}
	}
}

func TestTiming_LogLevelFollowsThreshold(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	slow := Timing(nil, time.Nanosecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
	}))
	slow.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/attendance/coaches", nil))
	if !strings.Contains(buf.String(), "slow_request") {
		t.Errorf("log = %q, want slow_request", buf.String())
	}

	buf.Reset()
	fast := Timing(nil, time.Hour)(statusHandler(http.StatusOK))
	fast.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/help", nil))
	if out := buf.String(); strings.Contains(out, "slow_request") || !strings.Contains(out, "msg=request") {
		t.Errorf("log = %q, want a debug request line", out)
	}
}

func TestTiming_SeesRequestID(t *testing.T) {
	var seen string
	handler := RequestID(Timing(nil, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if seen == "" || rr.Header().Get(RequestIDHeader) != seen {
		t.Errorf("request id = %q, header = %q", seen, rr.Header().Get(RequestIDHeader))
	}
}

func BenchmarkTiming_RosterPage(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, 0)(statusHandler(http.StatusOK))
	req := httptest.NewRequest("GET", "/attendance/students", nil)

	b.ReportAllocs()
	for b.Loop() {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkTiming_Parallel(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, 0)(statusHandler(http.StatusOK))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/history/students", nil))
		}
	})
}
