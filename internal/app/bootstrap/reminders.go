package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/dental-clinic-platform/internal/config"
	"github.com/wolfman30/dental-clinic-platform/internal/messaging"
	"github.com/wolfman30/dental-clinic-platform/internal/observability/metrics"
	"github.com/wolfman30/dental-clinic-platform/internal/reminders"
	"github.com/wolfman30/dental-clinic-platform/internal/settings"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// ReminderDB is what both the appointment and settings stores need.
type ReminderDB interface {
	reminders.DB
	settings.DB
}

// ReminderRuntime groups the wired reminder components.
type ReminderRuntime struct {
	Scheduler *reminders.Scheduler
	Handler   *reminders.Handler
	Metrics   *metrics.ReminderMetrics
}

// BuildReminderRuntime wires store, scanner, dispatcher and scheduler from
// configuration. reg may be nil to use the default Prometheus registry.
func BuildReminderRuntime(cfg *appconfig.Config, db ReminderDB, redisClient *redis.Client, reg prometheus.Registerer, logger *logging.Logger) (*ReminderRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("bootstrap: database is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc, err := cfg.ClinicLocation()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	m := metrics.NewReminderMetrics(reg)
	store := reminders.NewStore(db, loc)
	scanner := reminders.NewScanner(store, loc)
	dispatcher := reminders.NewDispatcher(scanner, store, reminders.DispatcherConfig{
		SendDelay:  cfg.ReminderSendDelay,
		DateLayout: cfg.ReminderDateFormat,
		Phone: messaging.PhoneRegion{
			CountryCode:    cfg.PhoneCountryCode,
			TrunkPrefix:    cfg.PhoneTrunkPrefix,
			NationalLength: cfg.PhoneNationalLength,
		},
	}, m, logger)

	gateway := BuildSettingsGateway(db, redisClient, cfg, logger)
	senders := reminders.GatewaySenderFactory(messaging.GatewayOptions{
		BaseURL: cfg.SMSGatewayBaseURL,
		Timeout: cfg.SMSGatewayTimeout,
		Logger:  logger,
	})

	scheduler := reminders.NewScheduler(gateway, dispatcher, senders, m, logger).
		WithInterval(cfg.ReminderScanInterval).
		WithLocation(loc)

	return &ReminderRuntime{
		Scheduler: scheduler,
		Handler:   reminders.NewHandler(scheduler, logger),
		Metrics:   m,
	}, nil
}
