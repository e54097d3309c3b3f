package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/reconciliation"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/response"
)

// paymobWebhookPayload is the processor callback shape. The order id
// arrives as a JSON number and is carried as a string everywhere else.
type paymobWebhookPayload struct {
	Type string `json:"type"`
	Obj  struct {
		Success     bool  `json:"success"`
		AmountCents int64 `json:"amount_cents"`
		Order       struct {
			ID json.Number `json:"id"`
		} `json:"order"`
	} `json:"obj"`
}

// @Summary      Payment Webhook
// @Description  Handles transaction callbacks pushed by the payment processor.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/webhook [post]
func ApiPaymentWebhook(eng reconciliation.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload paymobWebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		// Non-transaction callbacks (token saved, delivery status) are
		// acknowledged and skipped.
		if payload.Type != "TRANSACTION" {
			logctx.FromCtx(c, log).Infow("webhook_skipped", "type", payload.Type)
			c.JSON(http.StatusOK, response.OKT[any](nil))
			return
		}
		if payload.Obj.Order.ID.String() == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing order id"))
			return
		}

		sig := &reconciliation.WebhookSignal{
			TransactionID: payload.Obj.Order.ID.String(),
			Success:       payload.Obj.Success,
			AmountCents:   payload.Obj.AmountCents,
		}
		p, err := eng.HandleWebhook(c.Request.Context(), sig)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](reconcileErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"purchase_id": p.ID, "status": p.Status}))
	}
}

func reconcileErrorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, purchase.ErrNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, reconciliation.ErrAmountMismatch),
		errors.Is(err, reconciliation.ErrVerificationFailed):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, purchase.ErrIllegalTransition):
		return response.APIResponseCodeConflict
	default:
		return response.APIResponseCodeError
	}
}
