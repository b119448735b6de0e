package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FCMGateway implements push delivery via the FCM HTTP API
type FCMGateway struct {
	apiURL    string
	serverKey string
	client    *http.Client
}

// FCMConfig holds configuration for the FCM gateway
type FCMConfig struct {
	APIURL    string
	ServerKey string
	Timeout   time.Duration
}

// NewFCMGateway creates a new FCM gateway client
func NewFCMGateway(config FCMConfig) *FCMGateway {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &FCMGateway{
		apiURL:    config.APIURL,
		serverKey: config.ServerKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// fcmNotification is the user-visible part of an FCM message
type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// fcmAndroid carries Android-specific delivery options
type fcmAndroid struct {
	Priority string `json:"priority,omitempty"`
}

// fcmRequest is the FCM send request. Exactly one of To or RegistrationIDs
// is set depending on single vs multicast delivery.
type fcmRequest struct {
	To              string            `json:"to,omitempty"`
	RegistrationIDs []string          `json:"registration_ids,omitempty"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
	Android         *fcmAndroid       `json:"android,omitempty"`
}

// fcmResult is the per-token outcome inside an FCM response
type fcmResult struct {
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// fcmResponse is the FCM send response
type fcmResponse struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Results []fcmResult `json:"results"`
}

// GetName returns the gateway implementation name
func (g *FCMGateway) GetName() string {
	return "fcm"
}

// SendToToken sends a notification to a single device token
func (g *FCMGateway) SendToToken(token, title, body string, data map[string]string) error {
	req := fcmRequest{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
		Data:         data,
		Android:      &fcmAndroid{Priority: "high"},
	}

	resp, err := g.post(req)
	if err != nil {
		return err
	}

	if resp.Failure > 0 {
		reason := "unknown"
		if len(resp.Results) > 0 && resp.Results[0].Error != "" {
			reason = resp.Results[0].Error
		}
		return fmt.Errorf("fcm rejected message: %s", reason)
	}

	return nil
}

// SendToMany sends a notification to many device tokens in one multicast
// call. Per-token failures are reported in the result, not as an error; an
// error return means the whole call failed.
func (g *FCMGateway) SendToMany(tokens []string, title, body string, data map[string]string) (*MulticastResult, error) {
	if len(tokens) == 0 {
		return &MulticastResult{}, nil
	}

	req := fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: title, Body: body},
		Data:            data,
		Android:         &fcmAndroid{Priority: "high"},
	}

	resp, err := g.post(req)
	if err != nil {
		return nil, err
	}

	result := &MulticastResult{
		SuccessCount: resp.Success,
		FailureCount: resp.Failure,
	}

	for i, r := range resp.Results {
		if r.Error != "" && i < len(tokens) {
			result.FailedTokens = append(result.FailedTokens, tokens[i])
		}
	}

	return result, nil
}

// post sends a request to the FCM endpoint and decodes the response
func (g *FCMGateway) post(payload fcmRequest) (*fcmResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fcm request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, g.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create fcm request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "key="+g.serverKey)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call fcm: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fcm response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fcm returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp fcmResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode fcm response: %w", err)
	}

	return &resp, nil
}
