package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// Services bundles the application services the API exposes
type Services struct {
	Inventory *application.InventoryService
	Orders    *application.OrderService
	Ledger    *application.LedgerService
	Reports   *application.ReportService
}

// RegisterRoutes mounts the v1 API on router
func RegisterRoutes(router gin.IRouter, s Services, logger *logging.Logger) {
	middleware.InitValidator()
	if err := middleware.RegisterIDRule("item_id", func(id string) bool {
		return domain.ValidateItemID(id) == nil
	}); err != nil {
		logger.WithError(err).Error("Failed to register item id validator")
	}

	api := router.Group("/api/v1")

	items := api.Group("/items")
	{
		// Static routes first (must come before wildcard routes)
		items.GET("", listItemsHandler(s.Inventory, logger))
		items.GET("/low-stock", lowStockHandler(s.Inventory, logger))
		items.GET("/value", inventoryValueHandler(s.Inventory, logger))

		items.GET("/:id", getItemHandler(s.Inventory, logger))
		items.GET("/:id/history", itemHistoryHandler(s.Inventory, logger))
		items.PUT("/:id", saveItemHandler(s.Inventory, logger))
		items.DELETE("/:id", deleteItemHandler(s.Inventory, logger))
	}

	orders := api.Group("/orders")
	{
		orders.POST("", createOrderHandler(s.Orders, logger))
		orders.GET("", listOrdersHandler(s.Orders, logger))
		orders.GET("/range", ordersInRangeHandler(s.Orders, logger))
		orders.GET("/count", countOrdersHandler(s.Orders, logger))

		orders.GET("/:id", getOrderHandler(s.Orders, logger))
		orders.POST("/:id/processing", markProcessingHandler(s.Orders, logger))
		orders.POST("/:id/complete", completeOrderHandler(s.Ledger, logger))
		orders.DELETE("/:id", cancelOrderHandler(s.Orders, logger))
	}

	api.POST("/sales/direct", directSaleHandler(s.Ledger, logger))
	api.GET("/reports/daily", dailyReportHandler(s.Reports, logger))
}

// saleResponse is the ledger outcome plus, on failure, the error code and details
type saleResponse struct {
	*application.SaleResult
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// respondSale writes a ledger outcome. Failures keep the human message the
// ledger produced and take their status from the mapped error.
func respondSale(c *gin.Context, logger *logging.Logger, successStatus int, result *application.SaleResult, err error) {
	if err == nil {
		c.JSON(successStatus, result)
		return
	}
	if result == nil {
		middleware.NewErrorResponder(c, logger).RespondWithError(err)
		return
	}

	appErr := errors.FromError(err)
	c.JSON(appErr.HTTPStatus, saleResponse{
		SaleResult: result,
		Code:       appErr.Code,
		Details:    appErr.Details,
	})
}

// parseInstant accepts RFC 3339 timestamps or plain dates, read as UTC midnight
func parseInstant(name, value string) (time.Time, *errors.AppError) {
	if value == "" {
		return time.Time{}, errors.ErrValidation(name + " is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(application.ReportDateLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, errors.ErrValidation(name + " must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
