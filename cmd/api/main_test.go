package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dental-clinic-platform/internal/api/router"
	appconfig "github.com/wolfman30/dental-clinic-platform/internal/config"
	"github.com/wolfman30/dental-clinic-platform/internal/observability/metrics"
)

func TestSetupMetricsExposesReminderMetrics(t *testing.T) {
	registry, handler := setupMetrics()
	if registry == nil || handler == nil {
		t.Fatalf("expected non-nil registry and handler")
	}

	metrics.NewReminderMetrics(registry).ObserveCycle("ok", time.Second)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "dental_reminders_cycles_total") {
		t.Fatalf("expected cycle counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go runtime collector")
	}
}

func TestManualRunLimiter(t *testing.T) {
	if manualRunLimiter(&appconfig.Config{ManualRunPerMinute: 0}) != nil {
		t.Fatalf("expected no limiter when disabled")
	}
	limiter := manualRunLimiter(&appconfig.Config{ManualRunPerMinute: 2})
	if limiter == nil {
		t.Fatalf("expected limiter")
	}
	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("expected burst of two")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected third call to be limited")
	}
}

func TestHealthChecks(t *testing.T) {
	if checks := healthChecks(nil, nil); len(checks) != 0 {
		t.Fatalf("expected no checks, got %d", len(checks))
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := router.PingerFunc(func(context.Context) error { return nil })
	checks := healthChecks(db, client)
	if len(checks) != 2 {
		t.Fatalf("expected database and redis checks, got %d", len(checks))
	}
	if err := checks["redis"].Ping(context.Background()); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
}
