package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"stockroom/internal/mailer"
	dErrors "stockroom/pkg/domain-errors"
	"stockroom/pkg/platform/httputil"
)

type Handler struct {
	sender mailer.Sender
	logger *slog.Logger
}

func NewHandler(sender mailer.Sender, logger *slog.Logger) *Handler {
	return &Handler{sender: sender, logger: logger}
}

// recipients accepts a single address or an array of addresses; the frontend
// sends a bare string.
type recipients []string

func (r *recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = nil
		if one != "" {
			*r = recipients{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = recipients(many)
	return nil
}

type sendEmailRequest struct {
	To      recipients `json:"to"`
	Subject string     `json:"subject"`
	Message string     `json:"message"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.To) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "at least one recipient is required"))
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject is required"))
		return
	}

	receipt, err := h.sender.Send(r.Context(), mailer.Message{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		h.logger.Error("failed to send email", "recipients", len(req.To), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send email"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "sent",
		"provider": receipt.Provider,
		"from":     receipt.From,
		"accepted": receipt.Accepted,
	})
}
