package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookClient forwards user messages to the workspace's automation worker.
// The worker is solely responsible for writing the user's message row and any
// assistant reply back into the store; a send is nothing more than this
// hand-off.
type WebhookClient struct {
	httpClient *http.Client
}

func NewWebhookClient() *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WebhookPayload is the outbound message-send body.
type WebhookPayload struct {
	Text            string  `json:"text"`
	UserID          string  `json:"user_id"`
	AgentID         string  `json:"agent_id"`
	AgentWorkflowID *string `json:"agent_workflow_id"`
	WorkspaceID     string  `json:"workspace_id"`
}

// Send posts the payload to the webhook URL. A non-2xx response becomes an
// error carrying the response's JSON `message` field when parseable, else a
// generic "Error <status>" message. No automatic retry; failures are terminal
// per attempt.
func (w *WebhookClient) Send(ctx context.Context, webhookURL string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s", webhookErrorMessage(resp))
	}

	return nil
}

func webhookErrorMessage(resp *http.Response) string {
	message := fmt.Sprintf("Error %d", resp.StatusCode)

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.Message != "" {
		message = parsed.Message
	}
	return message
}
