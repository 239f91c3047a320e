package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dental-clinic-platform/internal/messaging"
)

func TestGatewayReminderConfig(t *testing.T) {
	source := &fakeSource{values: map[string]string{
		"sms_gateway_api_key":       " key-1 ",
		"sms_gateway_device_id":     "device-1",
		"sms_reminder_24h_enabled":  "true",
		"sms_reminder_2h_enabled":   "false",
		"sms_reminder_1h_enabled":   "yes please",
		"sms_reminder_24h_template": "Hi {patient_name}, see you {appointment_date} at {appointment_time}",
		"sms_reminder_2h_template":  "   ",
	}}

	cfg, err := NewGateway(source).ReminderConfig(context.Background())
	require.NoError(t, err)

	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "key-1", cfg.Credentials.APIKey)
	assert.True(t, cfg.Enabled("24h"))
	assert.False(t, cfg.Enabled("2h"))
	assert.False(t, cfg.Enabled("1h"), "unparseable toggle is off")
	assert.Contains(t, cfg.Template("24h"), "{patient_name}")
	assert.Equal(t, "", cfg.Template("2h"))
	assert.Equal(t, "", cfg.Template("1h"))

	require.Len(t, source.calls, 1)
	assert.Len(t, source.calls[0], 8)
}

func TestGatewayMissingCredentials(t *testing.T) {
	source := &fakeSource{values: map[string]string{"sms_gateway_api_key": "key-1"}}
	cfg, err := NewGateway(source).ReminderConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.HasCredentials())
}

func TestGatewaySourceError(t *testing.T) {
	_, err := NewGateway(&fakeSource{err: errors.New("boom")}).ReminderConfig(context.Background())
	assert.Error(t, err)
}

func TestReminderConfigIsSnapshot(t *testing.T) {
	enabled := map[string]bool{"24h": true}
	cfg := NewReminderConfig(enabled, nil, messaging.GatewayCredentials{APIKey: "k", DeviceID: "d"})
	enabled["24h"] = false
	assert.True(t, cfg.Enabled("24h"))
}
