package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	"go.uber.org/zap"
)

// Stripe event payloads stay well below this.
const maxWebhookBodyBytes = 64 << 10

// HandleStripeWebhook is mounted outside /api; the Stripe-Signature header is
// its only authentication.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(payload) > maxWebhookBodyBytes {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	outcome, err := s.paymentSvc.IngestStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Debug("stripe webhook handled",
		zap.String("event_id", outcome.EventID),
		zap.String("event_type", outcome.EventType),
		zap.String("result", string(outcome.Result)),
	)
	c.JSON(http.StatusOK, gin.H{"data": outcome})
}
