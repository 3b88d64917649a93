package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// saveItemRequest carries the fields to write; absent fields keep the stored value
type saveItemRequest struct {
	IsNew         bool          `json:"isNew"`
	Name          *string       `json:"name" binding:"omitempty,max=200"`
	Quantity      *int          `json:"quantity" binding:"omitempty,gte=0"`
	PurchasePrice *domain.Money `json:"purchasePrice"`
	SalePrice     *domain.Money `json:"salePrice"`
	MinStockAlert *int          `json:"minStockAlert" binding:"omitempty,gte=0"`
	Details       string        `json:"details" binding:"max=500"`
}

func listItemsHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := service.GetAllItems(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

func lowStockHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := service.GetLowStockItems(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

func inventoryValueHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := service.GetInventoryValue(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, value)
	}
}

func getItemHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := service.GetItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func itemHistoryHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := service.GetItemHistory(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, entries)
	}
}

func saveItemHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		var req saveItemRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.SaveItemCommand{
			ItemID:        c.Param("id"),
			IsNew:         req.IsNew,
			Name:          req.Name,
			Quantity:      req.Quantity,
			PurchasePrice: req.PurchasePrice,
			SalePrice:     req.SalePrice,
			MinStockAlert: req.MinStockAlert,
			Details:       req.Details,
		}

		item, err := service.SaveItem(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		status := http.StatusOK
		if req.IsNew {
			status = http.StatusCreated
		}
		c.JSON(status, item)
	}
}

func deleteItemHandler(service *application.InventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := service.DeleteItem(c.Request.Context(), application.DeleteItemCommand{ItemID: c.Param("id")})
		if err != nil {
			middleware.NewErrorResponder(c, logger).RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
