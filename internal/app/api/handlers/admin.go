package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/pkg/response"
)

// @Summary      Scan Purchases (Admin)
// @Description  Retrieves a paginated and filterable list of purchases across all users.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body purchase.ScanPurchasesRequest true "Scan request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespScanPurchases
// @Router       /api/v1/admin/purchases/scan [post]
func ApiScanPurchases(store *purchase.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req purchase.ScanPurchasesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := store.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Revenue Statistics (Admin)
// @Description  Retrieves daily paid purchase counts and gross merchandise value over a window.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body purchase.RevenueStatisticsRequest true "Statistics window"
// @Success      200  {object}  handlers.RespRevenueStatistics
// @Router       /api/v1/admin/purchases/statistics [post]
func ApiRevenueStatistics(store *purchase.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req purchase.RevenueStatisticsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := store.RevenueStatistics(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, store *purchase.Store) {
	r.POST("/purchases/scan", ApiScanPurchases(store))
	r.POST("/purchases/statistics", ApiRevenueStatistics(store))
}
