package handler

import "sims/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	CourseVersion *CourseVersionHandler
	Prerequisite  *PrerequisiteHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		CourseVersion: NewCourseVersionHandler(svc.CourseVersion),
		Prerequisite:  NewPrerequisiteHandler(svc.Prerequisite),
		Export:        NewExportHandler(svc.Export),
	}
}
