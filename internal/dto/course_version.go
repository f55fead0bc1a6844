package dto

// ── 课程版本模块 DTO ──

// CreateCourseVersionRequest 创建课程版本请求
// IsActive 仅作记录：新版本总是被激活
type CreateCourseVersionRequest struct {
	Title         string   `json:"title"         binding:"required,min=1,max=200"`
	Description   string   `json:"description"   binding:"max=4000"`
	Credits       int      `json:"credits"       binding:"min=0,max=60"`
	Prerequisites []string `json:"prerequisites" binding:"max=200,dive,max=32"`
	IsActive      bool     `json:"is_active"`
}

// CreateCourseVersionResponse 创建课程版本响应
type CreateCourseVersionResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// CourseVersionResponse 课程版本信息响应
type CourseVersionResponse struct {
	ID            string   `json:"id"`
	CourseID      string   `json:"course_id"`
	Version       int      `json:"version"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Credits       int      `json:"credits"`
	Prerequisites []string `json:"prerequisites"`
	IsActive      bool     `json:"is_active"`
	CreatedAt     string   `json:"created_at"`
}
