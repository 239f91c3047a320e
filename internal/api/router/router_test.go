package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/wolfman30/dental-clinic-platform/internal/http/middleware"
	"github.com/wolfman30/dental-clinic-platform/internal/reminders"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

const testSecret = "router-secret"

type stubRunner struct {
	runs int
}

func (s *stubRunner) RunCycle(ctx context.Context) (*reminders.CycleResult, error) {
	s.runs++
	return &reminders.CycleResult{Results: []reminders.AppointmentResult{}}, nil
}

func (s *stubRunner) Status() reminders.Status {
	return reminders.Status{Initialized: true}
}

func newTestRouter(t *testing.T, mutate func(*Config)) (http.Handler, *stubRunner) {
	t.Helper()
	logger := logging.Default()
	runner := &stubRunner{}
	cfg := &Config{
		Logger:           logger,
		RemindersHandler: reminders.NewHandler(runner, logger),
		AdminAuthSecret:  testSecret,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg), runner
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	claims := httpmiddleware.OperatorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterHealthDegraded(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *Config) {
		cfg.HealthChecks = map[string]Pinger{
			"database": PingerFunc(func(context.Context) error { return nil }),
			"redis":    PingerFunc(func(context.Context) error { return errors.New("dial tcp 10.0.3.7:6379: connection refused") }),
		}
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.Equal(t, "unavailable", resp["redis"])
	assert.NotContains(t, rr.Body.String(), "10.0.3.7")
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "# metrics", rr.Body.String())
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router, runner := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/reminders/run", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Zero(t, runner.runs)
}

func TestRouterAdminRejectsOtherRoles(t *testing.T) {
	router, runner := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/reminders/run", nil)
	req.Header.Set("Authorization", bearer(t, "doctor"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, runner.runs)
}

func TestRouterManualRun(t *testing.T) {
	router, runner := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/reminders/run", nil)
	req.Header.Set("Authorization", bearer(t, httpmiddleware.RoleReceptionist))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, runner.runs)
	assert.NotEmpty(t, rr.Header().Get(httpmiddleware.RequestIDHeader))
}

func TestRouterManualRunRateLimited(t *testing.T) {
	router, runner := newTestRouter(t, func(cfg *Config) {
		cfg.ManualRunLimiter = httpmiddleware.NewRateLimiter(0, 1)
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/admin/reminders/run", nil)
		req.Header.Set("Authorization", bearer(t, httpmiddleware.RoleAdmin))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, "request %d", i)
	}
	assert.Equal(t, 1, runner.runs)

	req := httptest.NewRequest(http.MethodGet, "/admin/reminders/status", nil)
	req.Header.Set("Authorization", bearer(t, httpmiddleware.RoleAdmin))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"initialized":true,"is_processing":false}`, rr.Body.String())
}

func TestRouterAdminNotMountedWithoutSecret(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *Config) { cfg.AdminAuthSecret = "" })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/reminders/status", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
