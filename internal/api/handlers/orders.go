package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
)

type orderLineRequest struct {
	ItemID   string `json:"itemId" binding:"required,item_id"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Title         string             `json:"title" binding:"max=200"`
	Items         []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string             `json:"paymentMethod" binding:"payment_method"`
	CustomerName  string             `json:"customerName" binding:"max=200"`
}

func createOrderHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		var req createOrderRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		lines := make([]application.OrderLineCommand, len(req.Items))
		for i, item := range req.Items {
			lines[i] = application.OrderLineCommand{
				ItemID:   item.ItemID,
				Quantity: item.Quantity,
			}
		}

		order, err := service.Create(c.Request.Context(), application.CreateOrderCommand{
			Title:         req.Title,
			Items:         lines,
			PaymentMethod: req.PaymentMethod,
			CustomerName:  req.CustomerName,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := service.GetOrders(c.Request.Context(), c.Query("status"))
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func ordersInRangeHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		start, appErr := parseInstant("start", c.Query("start"))
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}
		end, appErr := parseInstant("end", c.Query("end"))
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		orders, err := service.GetOrdersInRange(c.Request.Context(), application.OrdersInRangeQuery{Start: start, End: end})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func countOrdersHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := service.CountOrders(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func getOrderHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func markProcessingHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.MarkProcessing(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")
		if err := service.Cancel(c.Request.Context(), orderID); err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId": orderID,
			"message": "Order cancelled",
		})
	}
}
