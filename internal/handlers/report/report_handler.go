// internal/handlers/report/report_handler.go
package report

import (
	"net/http"
	"strconv"

	"whispr-service/internal/domain/report"
	"whispr-service/internal/middleware"
	"whispr-service/internal/pkg/response"
	reportService "whispr-service/internal/service/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	svc    *reportService.Service
	logger *zap.Logger
}

func NewReportHandler(svc *reportService.Service, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req report.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	rep, err := h.svc.Create(c.Request.Context(), middleware.MustGetAuthID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "report filed", gin.H{"reference": rep.Reference})
}

// List pages reports for the admin surface, unresolved first.
func (h *ReportHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reports fetched", items)
}

func (h *ReportHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid report id", err)
		return
	}

	if err := h.svc.Resolve(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "report resolved", nil)
}
