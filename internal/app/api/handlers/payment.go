package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/app/service/checkout"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/reconciliation"
	"github.com/m073med011/lms-api/pkg/response"
)

// @Summary      Initiate Checkout
// @Description  Creates a gateway order for the course and returns the hosted payment page URL.
// @Tags         Payment
// @Produce      json
// @Param        courseId path string true "Course ID"
// @Success      200  {object}  handlers.RespCheckout
// @Router       /api/v1/payment/checkout/{courseId} [post]
func ApiInitiateCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := svc.InitiateCheckout(c.Request.Context(), c.GetString("userID"), c.Param("courseId"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](checkoutErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(target))
	}
}

func checkoutErrorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, catalog.ErrCourseNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, checkout.ErrAlreadyPurchased):
		return response.APIResponseCodeConflict
	case errors.Is(err, checkout.ErrCourseNotSellable),
		errors.Is(err, checkout.ErrOwnCoursePurchase):
		return response.APIResponseCodeBadRequest
	default:
		return response.APIResponseCodeError
	}
}

type confirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Success       bool   `json:"success"`
}

// @Summary      Confirm Payment
// @Description  Reconciles a client-reported payment outcome. Claimed successes are re-verified against the gateway.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body handlers.confirmPaymentRequest true "Client-reported outcome"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/confirm [post]
func ApiConfirmPayment(eng reconciliation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		sig := &reconciliation.ConfirmSignal{
			TransactionID:         req.TransactionID,
			ClientAssertedSuccess: req.Success,
		}
		p, err := eng.HandleConfirm(c.Request.Context(), sig)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](reconcileErrorCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"purchase_id": p.ID, "status": p.Status}))
	}
}

// @Summary      Purchase Status
// @Description  Returns the current status of a purchase for client polling.
// @Tags         Payment
// @Produce      json
// @Param        id path string true "Purchase ID"
// @Success      200  {object}  handlers.RespPurchaseStatus
// @Router       /api/v1/purchases/{id}/status [get]
func ApiPurchaseStatus(eng reconciliation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := eng.PurchaseStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, purchase.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"status": status}))
	}
}

func RegisterPaymentRoutes(public, authed gin.IRouter, svc *checkout.Service, eng reconciliation.Engine, log *zap.SugaredLogger) {
	public.POST("/payment/webhook", ApiPaymentWebhook(eng, log))
	authed.POST("/payment/checkout/:courseId", ApiInitiateCheckout(svc))
	authed.POST("/payment/confirm", ApiConfirmPayment(eng))
	authed.GET("/purchases/:id/status", ApiPurchaseStatus(eng))
}
