package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/mailer"
)

type failingSender struct{}

func (failingSender) Send(ctx context.Context, msg mailer.Message) (*mailer.Receipt, error) {
	return nil, errors.New("relay unreachable")
}

type captureSender struct {
	sent []mailer.Message
}

func (c *captureSender) Send(ctx context.Context, msg mailer.Message) (*mailer.Receipt, error) {
	c.sent = append(c.sent, msg)
	return &mailer.Receipt{Provider: "smtp", From: "noreply@stockroom.local", Accepted: msg.To}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func send(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/send-email", &buf)
	rec := httptest.NewRecorder()
	h.Send(rec, req)
	return rec
}

func TestSendEmailSingleRecipient(t *testing.T) {
	sender := &captureSender{}
	h := NewHandler(sender, testLogger())

	rec := send(t, h, map[string]any{
		"to":      "ops@example.com",
		"subject": "Low stock",
		"message": "Printer toner is below threshold.",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ops@example.com"}, sender.sent[0].To)
	assert.Equal(t, "Low stock", sender.sent[0].Subject)
	assert.Equal(t, "Printer toner is below threshold.", sender.sent[0].Body)

	var resp struct {
		Status   string   `json:"status"`
		Provider string   `json:"provider"`
		From     string   `json:"from"`
		Accepted []string `json:"accepted"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "sent", resp.Status)
	assert.Equal(t, "smtp", resp.Provider)
	assert.Equal(t, "noreply@stockroom.local", resp.From)
	assert.Equal(t, []string{"ops@example.com"}, resp.Accepted)
}

func TestSendEmailRecipientList(t *testing.T) {
	sender := &captureSender{}
	h := NewHandler(sender, testLogger())

	rec := send(t, h, map[string]any{
		"to":      []string{"ops@example.com", "facilities@example.com"},
		"subject": "Low stock",
		"message": "Two teams to notify.",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ops@example.com", "facilities@example.com"}, sender.sent[0].To)
}

func TestSendEmailValidation(t *testing.T) {
	h := NewHandler(mailer.NopSender{}, testLogger())

	tests := []struct {
		name string
		body any
	}{
		{"malformed body", "{not json"},
		{"no recipients", map[string]any{"subject": "Hi"}},
		{"empty recipient string", map[string]any{"to": "", "subject": "Hi"}},
		{"blank subject", map[string]any{"to": "ops@example.com", "subject": "   "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := send(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendEmailRelayFailure(t *testing.T) {
	h := NewHandler(failingSender{}, testLogger())

	rec := send(t, h, map[string]any{
		"to":      "ops@example.com",
		"subject": "Low stock",
		"message": "won't make it",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "internal", resp.Error)
}
