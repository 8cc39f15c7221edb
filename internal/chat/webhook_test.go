package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSend_Success(t *testing.T) {
	var got WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewWebhookClient()
	err := client.Send(context.Background(), server.URL, WebhookPayload{
		Text:        "hello",
		UserID:      "user-1",
		AgentID:     "agent-1",
		WorkspaceID: "ws-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "agent-1", got.AgentID)
}

func TestWebhookSend_ErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "workflow is paused"})
	}))
	defer server.Close()

	client := NewWebhookClient()
	err := client.Send(context.Background(), server.URL, WebhookPayload{Text: "hello"})

	require.Error(t, err)
	assert.Equal(t, "workflow is paused", err.Error())
}

func TestWebhookSend_GenericErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewWebhookClient()
	err := client.Send(context.Background(), server.URL, WebhookPayload{Text: "hello"})

	require.Error(t, err)
	assert.Equal(t, "Error 502", err.Error())
}
