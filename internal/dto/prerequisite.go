package dto

// ── 先修关系模块 DTO ──

// PrerequisiteGraphResponse 先修关系图（课程代码 → 直接先修代码）
type PrerequisiteGraphResponse struct {
	CourseID  string              `json:"course_id"`
	StartCode string              `json:"start_code"`
	Adjacency map[string][]string `json:"adjacency"`
}

// ValidatePrerequisitesRequest 先修链校验查询参数
type ValidatePrerequisitesRequest struct {
	MaxDepth int `form:"max_depth" binding:"omitempty,min=1,max=500"`
}

// 校验结果状态
const (
	ChainStatusValid         = "valid"
	ChainStatusCycle         = "cycle"
	ChainStatusDepthExceeded = "depth_exceeded"
)

// PrerequisiteValidationResponse 先修链校验结果
// Status=cycle 时 Cycle 为首尾相同的课程代码序列；Status=depth_exceeded 时 Reason 说明上限与起点
type PrerequisiteValidationResponse struct {
	CourseID  string   `json:"course_id"`
	StartCode string   `json:"start_code"`
	Valid     bool     `json:"valid"`
	Status    string   `json:"status"`
	Cycle     []string `json:"cycle,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	MaxDepth  int      `json:"max_depth"`
}

// DependentCourseResponse 以目标课程为先修的课程
type DependentCourseResponse struct {
	ID                    string   `json:"id"`
	Code                  string   `json:"code"`
	Title                 string   `json:"title"`
	MatchingPrerequisites []string `json:"matching_prerequisites"`
}

// DependentsResponse 依赖课程查询结果
type DependentsResponse struct {
	TargetCode string                    `json:"target_code"`
	Dependents []DependentCourseResponse `json:"dependents"`
}
