package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/stakepact/stakepact/internal/service/payment"
)

type PaymentHandler struct {
	paymentService payment.Provider
}

func NewPaymentHandler(paymentService payment.Provider) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ClientConfig exposes the publishable key the card-capture frontend needs.
func (h *PaymentHandler) ClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publishableKey": h.paymentService.PublishableKey(),
	})
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.paymentService.HandleWebhook(payload, r.Header)
	if err != nil {
		slog.Error("failed to handle webhook", "error", err, "provider", h.paymentService.Name())
		http.Error(w, "Failed to process webhook", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received": true}`))
}
