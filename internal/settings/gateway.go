package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/dental-clinic-platform/internal/messaging"
)

// Settings keys read by the reminder scheduler.
const (
	KeyGatewayAPIKey   = "sms_gateway_api_key"
	KeyGatewayDeviceID = "sms_gateway_device_id"
)

// ReminderThresholds lists the reminder lead-times that have settings keys.
var ReminderThresholds = []string{"24h", "2h", "1h"}

// EnabledKey is the toggle key for a threshold, e.g. sms_reminder_24h_enabled.
func EnabledKey(threshold string) string {
	return fmt.Sprintf("sms_reminder_%s_enabled", threshold)
}

// TemplateKey is the message template key for a threshold.
func TemplateKey(threshold string) string {
	return fmt.Sprintf("sms_reminder_%s_template", threshold)
}

// ReminderConfig is an immutable snapshot of reminder settings for one cycle.
type ReminderConfig struct {
	enabled     map[string]bool
	templates   map[string]string
	Credentials messaging.GatewayCredentials
}

// NewReminderConfig builds a snapshot; the maps are copied.
func NewReminderConfig(enabled map[string]bool, templates map[string]string, creds messaging.GatewayCredentials) ReminderConfig {
	cfg := ReminderConfig{
		enabled:     make(map[string]bool, len(enabled)),
		templates:   make(map[string]string, len(templates)),
		Credentials: creds,
	}
	for k, v := range enabled {
		cfg.enabled[k] = v
	}
	for k, v := range templates {
		cfg.templates[k] = v
	}
	return cfg
}

// Enabled reports whether reminders for the threshold are switched on.
func (c ReminderConfig) Enabled(threshold string) bool {
	return c.enabled[threshold]
}

// Template returns the threshold template, or "" when it is missing or blank.
func (c ReminderConfig) Template(threshold string) string {
	tpl := c.templates[threshold]
	if strings.TrimSpace(tpl) == "" {
		return ""
	}
	return tpl
}

// HasCredentials reports whether the SMS gateway can be called at all.
func (c ReminderConfig) HasCredentials() bool {
	return c.Credentials.Complete()
}

// Gateway turns raw key/value settings into typed snapshots.
type Gateway struct {
	source Source
}

// NewGateway creates a settings gateway over any Source.
func NewGateway(source Source) *Gateway {
	return &Gateway{source: source}
}

// ReminderConfig reads toggles, templates and gateway credentials in one call.
func (g *Gateway) ReminderConfig(ctx context.Context) (ReminderConfig, error) {
	keys := []string{KeyGatewayAPIKey, KeyGatewayDeviceID}
	for _, t := range ReminderThresholds {
		keys = append(keys, EnabledKey(t), TemplateKey(t))
	}
	values, err := g.source.GetMany(ctx, keys...)
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("settings: reminder config: %w", err)
	}

	enabled := make(map[string]bool, len(ReminderThresholds))
	templates := make(map[string]string, len(ReminderThresholds))
	for _, t := range ReminderThresholds {
		enabled[t] = parseToggle(values[EnabledKey(t)])
		templates[t] = values[TemplateKey(t)]
	}
	creds := messaging.GatewayCredentials{
		APIKey:   strings.TrimSpace(values[KeyGatewayAPIKey]),
		DeviceID: strings.TrimSpace(values[KeyGatewayDeviceID]),
	}
	return NewReminderConfig(enabled, templates, creds), nil
}

// parseToggle treats anything that is not a recognizable true value as off.
func parseToggle(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
