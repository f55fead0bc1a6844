package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sims/backend/internal/dto"
	"sims/backend/internal/service"
	"sims/backend/pkg/response"
)

// CourseVersionHandler 课程版本模块 HTTP 处理器
type CourseVersionHandler struct {
	versionSvc service.CourseVersionService
}

// NewCourseVersionHandler 创建 CourseVersionHandler
func NewCourseVersionHandler(versionSvc service.CourseVersionService) *CourseVersionHandler {
	return &CourseVersionHandler{versionSvc: versionSvc}
}

// ListVersions 获取课程全部版本（按版本号升序）
// GET /api/v1/courses/:id/versions
func (h *CourseVersionHandler) ListVersions(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	versions, err := h.versionSvc.ListVersions(c.Request.Context(), courseID)
	if err != nil {
		h.handleVersionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": versions})
}

// CreateVersion 创建课程版本快照并设为活动版本
// POST /api/v1/courses/:id/versions
func (h *CourseVersionHandler) CreateVersion(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	var req dto.CreateCourseVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeInvalidParam, "参数校验失败", err.Error())
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.versionSvc.CreateVersion(c.Request.Context(), courseID, &req, callerID)
	if err != nil {
		h.handleVersionError(c, err)
		return
	}

	response.Created(c, result)
}

// GetActiveVersion 获取课程当前活动版本
// GET /api/v1/courses/:id/versions/active
func (h *CourseVersionHandler) GetActiveVersion(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "课程ID不能为空")
		return
	}

	version, err := h.versionSvc.GetActiveVersion(c.Request.Context(), courseID)
	if err != nil {
		h.handleVersionError(c, err)
		return
	}
	if version == nil {
		response.NotFound(c, response.CodeNoActiveVersion, "课程暂无活动版本")
		return
	}

	response.OK(c, version)
}

// GetVersion 获取版本详情
// GET /api/v1/course-versions/:id
func (h *CourseVersionHandler) GetVersion(c *gin.Context) {
	versionID := c.Param("id")
	if versionID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "版本ID不能为空")
		return
	}

	version, err := h.versionSvc.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		h.handleVersionError(c, err)
		return
	}

	response.OK(c, version)
}

// ArchiveVersion 归档（停用）版本
// PUT /api/v1/course-versions/:id/archive
func (h *CourseVersionHandler) ArchiveVersion(c *gin.Context) {
	versionID := c.Param("id")
	if versionID == "" {
		response.BadRequest(c, response.CodeInvalidParam, "版本ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.versionSvc.Archive(c.Request.Context(), versionID, callerID); err != nil {
		h.handleVersionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleVersionError 统一处理课程版本模块业务错误
func (h *CourseVersionHandler) handleVersionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, response.CodeCourseNotFound, "课程不存在")
	case errors.Is(err, service.ErrCourseVersionNotFound):
		response.NotFound(c, response.CodeVersionNotFound, "课程版本不存在")
	case errors.Is(err, service.ErrVersionLockBusy):
		response.Conflict(c, response.CodeVersionLockBusy, "该课程正在创建新版本，请稍后重试")
	default:
		response.InternalError(c)
	}
}
