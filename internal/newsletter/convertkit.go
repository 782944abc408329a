package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
)

// ConvertKitClient talks to the ConvertKit v3 API.
type ConvertKitClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	apiSecret  string
	baseURL    string
}

// NewConvertKitClient creates a delivery client.
func NewConvertKitClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) (*ConvertKitClient, error) {
	if cfg.ConvertKit.APIKey == "" {
		return nil, fmt.Errorf("CONVERTKIT_API_KEY is required")
	}

	return &ConvertKitClient{
		httpClient: httpClient,
		logger:     log,
		apiKey:     cfg.ConvertKit.APIKey,
		apiSecret:  cfg.ConvertKit.APISecret,
		baseURL:    cfg.ConvertKit.BaseURL,
	}, nil
}

// AddSubscriber subscribes an email address to a form.
func (c *ConvertKitClient) AddSubscriber(ctx context.Context, formID, email string) error {
	payload := map[string]string{
		"api_key": c.apiKey,
		"email":   email,
	}

	url := fmt.Sprintf("%s/forms/%s/subscribe", c.baseURL, formID)
	resp, err := c.httpClient.PostJSON(ctx, url, payload)
	if err != nil {
		return fmt.Errorf("convertkit subscribe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("convertkit subscribe error %d: %s", resp.StatusCode, string(body))
	}

	c.logger.WithField("email", email).Info("Subscriber added")
	return nil
}

// Broadcast is the created broadcast as returned by ConvertKit.
type Broadcast struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
}

type broadcastResponse struct {
	Broadcast Broadcast `json:"broadcast"`
}

// SendBroadcast creates and publishes a broadcast email. The secret key
// is required for broadcast endpoints.
func (c *ConvertKitClient) SendBroadcast(ctx context.Context, subject, content string) (*Broadcast, error) {
	if c.apiSecret == "" {
		return nil, fmt.Errorf("CONVERTKIT_API_SECRET is required for broadcasts")
	}

	payload := map[string]interface{}{
		"api_secret": c.apiSecret,
		"subject":    subject,
		"content":    content,
		"public":     true,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/broadcasts", payload)
	if err != nil {
		return nil, fmt.Errorf("convertkit broadcast failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read convertkit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("convertkit broadcast error %d: %s", resp.StatusCode, string(body))
	}

	var parsed broadcastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse convertkit response: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"broadcast_id": parsed.Broadcast.ID,
		"subject":      subject,
	}).Info("Broadcast sent")

	return &parsed.Broadcast, nil
}
