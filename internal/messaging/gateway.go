package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

const defaultGatewayBaseURL = "https://api.textbee.dev/api/v1"

var (
	// ErrGatewayCredentialsMissing is returned when the API key or device id is blank.
	ErrGatewayCredentialsMissing = errors.New("messaging: sms gateway credentials missing")

	gatewayTracer = otel.Tracer("dental.internal.messaging.gateway")
)

// GatewayCredentials authenticate against the SMS gateway. They live in the
// clinic settings table, not in the environment.
type GatewayCredentials struct {
	APIKey   string
	DeviceID string
}

// Complete reports whether both credential fields are present.
func (c GatewayCredentials) Complete() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.DeviceID) != ""
}

// GatewayOptions configures the transport shared by every GatewayClient.
type GatewayOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// GatewayClient sends SMS through an Android-device SMS gateway over HTTPS.
// Each SendSMS call is a single attempt; retries are left to the caller.
type GatewayClient struct {
	creds      GatewayCredentials
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *logging.Logger
}

// NewGatewayClient builds a client bound to one credentials snapshot.
func NewGatewayClient(creds GatewayCredentials, opts GatewayOptions) (*GatewayClient, error) {
	if !creds.Complete() {
		return nil, ErrGatewayCredentialsMissing
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGatewayBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &GatewayClient{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: httpClient,
		tracer:     gatewayTracer,
		logger:     logger,
	}, nil
}

type gatewaySendRequest struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

// SendSMS posts one message to one recipient. Any non-2xx status is a failure.
func (c *GatewayClient) SendSMS(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := c.tracer.Start(ctx, "messaging.gateway.send")
	defer span.End()
	span.SetAttributes(attribute.String("dental.to", to))

	payload, err := json.Marshal(gatewaySendRequest{Recipients: []string{to}, Message: body})
	if err != nil {
		return fmt.Errorf("messaging: marshal gateway payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/gateway/devices/%s/send-sms", c.baseURL, url.PathEscape(c.creds.DeviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("messaging: build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("messaging: gateway send: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: gateway send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-2xx response")
		return err
	}

	c.logger.Debug("gateway sms accepted", "to", to, "status", resp.StatusCode)
	return nil
}
