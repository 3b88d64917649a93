package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
)

func dailyReportHandler(service *application.ReportService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		day, err := service.ParseDate(c.Query("date"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		summary, err := service.DailySummary(c.Request.Context(), day)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
