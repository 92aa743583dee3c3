package ntfy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sampark/sampark/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, received *[]Message, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		*received = append(*received, msg)
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("denied"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendNewRegistration(t *testing.T) {
	var received []Message
	var auth string
	srv := newTestServer(t, http.StatusOK, &received, &auth)

	c := NewClient(&config.NtfyConfig{ServerURL: srv.URL, Topic: "admins", Token: "tk"})
	err := c.SendNewRegistration(context.Background(), "Alice", "SAMP20250001", "Acme", "http://front/admin")
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "admins", received[0].Topic)
	assert.Equal(t, "New Registration", received[0].Title)
	assert.Contains(t, received[0].Message, "SAMP20250001")
	assert.Contains(t, received[0].Message, "Acme")
	assert.Equal(t, "http://front/admin", received[0].Click)
	assert.Equal(t, "Bearer tk", auth)
}

func TestSendPendingDigest(t *testing.T) {
	var received []Message
	srv := newTestServer(t, http.StatusOK, &received, nil)
	c := NewClient(&config.NtfyConfig{ServerURL: srv.URL, Topic: "admins"})

	require.NoError(t, c.SendPendingDigest(context.Background(), nil, ""))
	assert.Empty(t, received)

	require.NoError(t, c.SendPendingDigest(context.Background(), []string{"Alice", "Bob"}, ""))
	require.Len(t, received, 1)
	assert.Contains(t, received[0].Message, "**Pending registrations:** 2")
	assert.Contains(t, received[0].Message, "- Bob")
}

func TestSendMessageErrorStatus(t *testing.T) {
	var received []Message
	srv := newTestServer(t, http.StatusForbidden, &received, nil)
	c := NewClient(&config.NtfyConfig{ServerURL: srv.URL, Topic: "admins"})

	err := c.SendMessage(context.Background(), Message{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403: denied")
}
