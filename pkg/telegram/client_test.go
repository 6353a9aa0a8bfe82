package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{ChatID: "-100200300"})
	assert.Error(t, err)

	_, err = NewClient(Config{BotToken: "123:abc"})
	assert.Error(t, err)

	client, err := NewClient(Config{BotToken: "123:abc", ChatID: "-100200300"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, client.config.BaseURL)
	assert.Equal(t, defaultTimeout, client.config.Timeout)
}

func TestClient_Notify(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BotToken: "123:abc",
		ChatID:   "-100200300",
		BaseURL:  server.URL,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	err = client.Notify(context.Background(), "<b>Новый заказ №7</b>")
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-100200300", gotBody.ChatID)
	assert.Equal(t, "<b>Новый заказ №7</b>", gotBody.Text)
	assert.Equal(t, "HTML", gotBody.ParseMode)
}

func TestClient_Notify_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BotToken: "123:abc",
		ChatID:   "bad",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	err = client.Notify(context.Background(), "текст")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_Notify_Unreachable(t *testing.T) {
	client, err := NewClient(Config{
		BotToken: "123:abc",
		ChatID:   "-1",
		BaseURL:  "http://127.0.0.1:1",
		Timeout:  time.Second,
	})
	require.NoError(t, err)

	err = client.Notify(context.Background(), "текст")
	assert.Error(t, err)
}
