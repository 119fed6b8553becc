package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialguard/internal/dispatch"
	"socialguard/pkg/logging"
	"socialguard/pkg/middleware"
)

type emailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SendEmailRequest struct {
	Recipients []emailRecipient `json:"recipients"`
	Subject    string           `json:"subject"`
	Message    string           `json:"message"`
}

type SendSMSRequest struct {
	RecipientNumbers []string `json:"recipient_numbers"`
	Message          string   `json:"message"`
}

type outcomeResponse struct {
	Recipient         string `json:"recipient"`
	Status            string `json:"status"`
	ProviderReference string `json:"provider_reference,omitempty"`
	Error             string `json:"error,omitempty"`
}

type DispatchHandler struct {
	dispatcher Dispatcher
	logger     logging.Logger
	metrics    *DispatchMetrics
}

func NewDispatchHandler(dispatcher Dispatcher, logger logging.Logger, metrics *DispatchMetrics) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

func (h *DispatchHandler) SendEmail(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, dispatch.ChannelEmail, err)
		return
	}

	recipients := make([]dispatch.Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		recipients[i] = dispatch.Recipient{Address: r.Email, Name: r.Name}
	}

	h.dispatch(c, dispatch.Request{
		Channel:    dispatch.ChannelEmail,
		Recipients: recipients,
		Subject:    req.Subject,
		Body:       req.Message,
	}, "Successfully sent email to %d recipient(s).")
}

func (h *DispatchHandler) SendSMS(c *gin.Context) {
	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, dispatch.ChannelSMS, err)
		return
	}

	recipients := make([]dispatch.Recipient, len(req.RecipientNumbers))
	for i, n := range req.RecipientNumbers {
		recipients[i] = dispatch.Recipient{Address: n}
	}

	h.dispatch(c, dispatch.Request{
		Channel:    dispatch.ChannelSMS,
		Recipients: recipients,
		Body:       req.Message,
	}, "Successfully sent SMS to %d number(s).")
}

func (h *DispatchHandler) badRequest(c *gin.Context, channel dispatch.Channel, err error) {
	h.metrics.IncRequest(string(channel), "bad_request")
	middleware.GetContextLogger(c, h.logger).WithError(err).Warn("Malformed dispatch request")

	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request format",
	})
}

func (h *DispatchHandler) dispatch(c *gin.Context, req dispatch.Request, successFormat string) {
	channel := string(req.Channel)
	log := middleware.GetContextLogger(c, h.logger).WithFields(logging.Fields{
		"channel":    channel,
		"recipients": len(req.Recipients),
	})

	start := time.Now()
	report, err := h.dispatcher.DispatchAll(c.Request.Context(), req)
	h.metrics.ObserveDuration(channel, time.Since(start))

	var verr *dispatch.ValidationError
	var cerr *dispatch.ConfigurationError
	switch {
	case errors.As(err, &verr):
		h.metrics.IncRequest(channel, "validation_failed")
		log.WithField("errors", verr.Problems).Warn("Rejected dispatch request")

		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Request failed validation",
			"details": verr.Problems,
		})
		return

	case errors.As(err, &cerr):
		h.metrics.IncRequest(channel, "not_configured")
		log.Error("Dispatch attempted on unconfigured channel")

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   fmt.Sprintf("%s channel is not configured", channel),
			"code":    "channel_not_configured",
		})
		return

	case err != nil:
		h.metrics.IncRequest(channel, "error")
		log.WithError(err).Error("Dispatch failed")

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "An internal server error occurred",
		})
		return
	}

	sent := report.SentCount()
	h.metrics.AddRecipients(channel, string(dispatch.StatusSent), sent)
	h.metrics.AddRecipients(channel, string(dispatch.StatusFailed), len(report.Outcomes)-sent)

	var derr *dispatch.DeliveryError
	if errors.As(report.Err(), &derr) {
		status := "failed"
		if derr.IsPartial() {
			status = "partial_failure"
		}
		h.metrics.IncRequest(channel, status)
		log.WithFields(logging.Fields{
			"sent_count": sent,
			"failed":     redactAll(channel, derr.Failed),
		}).Error("Dispatch completed with failures")

		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"error":      derr.Error(),
			"failed":     derr.Failed,
			"sent_count": sent,
			"results":    outcomes(report),
		})
		return
	}

	h.metrics.IncRequest(channel, "success")
	log.WithField("sent_count", sent).Info("Dispatch completed")

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"sent_count": sent,
		"message":    fmt.Sprintf(successFormat, sent),
		"results":    outcomes(report),
	})
}

func outcomes(report *dispatch.Report) []outcomeResponse {
	out := make([]outcomeResponse, len(report.Outcomes))
	for i, o := range report.Outcomes {
		out[i] = outcomeResponse{
			Recipient:         o.Recipient.Address,
			Status:            string(o.Status),
			ProviderReference: o.ProviderReference,
			Error:             o.Detail(),
		}
	}
	return out
}
