package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// saleLineRequest mirrors a basket line from the point of sale. Quantities
// and ids are checked by the ledger so rejections carry its message.
type saleLineRequest struct {
	ItemID   string        `json:"itemId"`
	Name     string        `json:"name"`
	Quantity int           `json:"quantity"`
	Price    *domain.Money `json:"price"`
}

type directSaleRequest struct {
	SaleID        string            `json:"saleId"`
	Items         []saleLineRequest `json:"items"`
	PaymentMethod string            `json:"paymentMethod" binding:"payment_method"`
	CustomerName  string            `json:"customerName" binding:"max=200"`
}

func completeOrderHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := service.CompleteOrder(c.Request.Context(), application.CompleteOrderCommand{
			OrderID: c.Param("id"),
		})
		respondSale(c, logger, http.StatusOK, result, err)
	}
}

func directSaleHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req directSaleRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger).RespondWithAppError(appErr)
			return
		}

		lines := make([]application.SaleLineCommand, len(req.Items))
		for i, item := range req.Items {
			lines[i] = application.SaleLineCommand{
				ItemID:   item.ItemID,
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			}
		}

		result, err := service.ProcessDirectSale(c.Request.Context(), application.DirectSaleCommand{
			SaleID:        req.SaleID,
			Items:         lines,
			PaymentMethod: req.PaymentMethod,
			CustomerName:  req.CustomerName,
		})
		respondSale(c, logger, http.StatusCreated, result, err)
	}
}
