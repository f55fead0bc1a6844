package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sims/backend/internal/dto"
	"sims/backend/internal/service"
	"sims/backend/pkg/response"
)

// PrerequisiteHandler 先修关系模块 HTTP 处理器
type PrerequisiteHandler struct {
	prereqSvc service.PrerequisiteService
}

// NewPrerequisiteHandler 创建 PrerequisiteHandler
func NewPrerequisiteHandler(prereqSvc service.PrerequisiteService) *PrerequisiteHandler {
	return &PrerequisiteHandler{prereqSvc: prereqSvc}
}

// GetGraph 解析课程的先修关系图
// GET /api/v1/courses/:id/prerequisites/graph
func (h *PrerequisiteHandler) GetGraph(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	graph, err := h.prereqSvc.BuildGraph(c.Request.Context(), courseID)
	if err != nil {
		h.handlePrerequisiteError(c, err)
		return
	}

	response.OK(c, graph)
}

// Validate 校验先修链（环路与深度）
// GET /api/v1/courses/:id/prerequisites/validate?max_depth=50
//
// 校验未通过同样返回 200，结果在 data.valid / data.status 中给出
func (h *PrerequisiteHandler) Validate(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	var req dto.ValidatePrerequisitesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeInvalidParam, "参数校验失败", err.Error())
		return
	}

	result, err := h.prereqSvc.Validate(c.Request.Context(), courseID, req.MaxDepth)
	if err != nil {
		h.handlePrerequisiteError(c, err)
		return
	}

	response.OK(c, result)
}

// GetDependents 查找以某课程代码为先修的课程
// GET /api/v1/courses/:id/dependents?code=CS201
func (h *PrerequisiteHandler) GetDependents(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	result, err := h.prereqSvc.FindDependents(c.Request.Context(), courseID, c.Query("code"))
	if err != nil {
		h.handlePrerequisiteError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePrerequisiteError 统一处理先修关系模块业务错误
func (h *PrerequisiteHandler) handlePrerequisiteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, response.CodeCourseNotFound, "课程不存在")
	default:
		response.InternalError(c)
	}
}
