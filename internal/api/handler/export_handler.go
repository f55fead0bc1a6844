package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sims/backend/internal/service"
	"sims/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportCatalogReport 导出课程目录报告
// GET /api/v1/courses/:id/catalog-report
func (h *ExportHandler) ExportCatalogReport(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportCatalogReport(c.Request.Context(), courseID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, response.XLSXContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, response.CodeCourseNotFound, "课程不存在")
	default:
		response.InternalError(c)
	}
}
