package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sims/backend/internal/dto"
	"sims/backend/internal/model"
	"sims/backend/internal/repository"
)

// PrerequisiteService 先修关系业务接口
type PrerequisiteService interface {
	BuildGraph(ctx context.Context, courseID string) (*dto.PrerequisiteGraphResponse, error)
	// Validate maxDepth<=0 时使用配置的默认上限
	Validate(ctx context.Context, courseID string, maxDepth int) (*dto.PrerequisiteValidationResponse, error)
	// FindDependents candidateCode 为空时以课程自身代码为目标
	FindDependents(ctx context.Context, courseID string, candidateCode string) (*dto.DependentsResponse, error)
}

type prerequisiteService struct {
	repo     *repository.Repository
	maxDepth int
	logger   *zap.Logger
}

// NewPrerequisiteService 创建 PrerequisiteService 实例
func NewPrerequisiteService(repo *repository.Repository, maxDepth int, logger *zap.Logger) PrerequisiteService {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &prerequisiteService{repo: repo, maxDepth: maxDepth, logger: logger}
}

// ────────────────────── BuildGraph ──────────────────────

func (s *prerequisiteService) BuildGraph(ctx context.Context, courseID string) (*dto.PrerequisiteGraphResponse, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	graph, err := BuildPrerequisiteGraph(ctx, s.repo.Course, course.Code, s.maxDepth)
	if err != nil {
		s.logger.Error("构建先修关系图失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	return &dto.PrerequisiteGraphResponse{
		CourseID:  course.CourseID,
		StartCode: course.Code,
		Adjacency: graph,
	}, nil
}

// ────────────────────── Validate ──────────────────────

func (s *prerequisiteService) Validate(ctx context.Context, courseID string, maxDepth int) (*dto.PrerequisiteValidationResponse, error) {
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// 以相同上限构建图，保证校验能观察到被截断的最深节点
	graph, err := BuildPrerequisiteGraph(ctx, s.repo.Course, course.Code, maxDepth)
	if err != nil {
		s.logger.Error("构建先修关系图失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	outcome := ValidatePrerequisiteChain(graph, course.Code, maxDepth)
	if !outcome.Valid() {
		s.logger.Info("先修链校验未通过",
			zap.String("course_id", courseID),
			zap.String("start_code", course.Code),
			zap.String("status", outcome.Status),
			zap.Strings("cycle", outcome.Cycle),
		)
	}

	return &dto.PrerequisiteValidationResponse{
		CourseID:  course.CourseID,
		StartCode: course.Code,
		Valid:     outcome.Valid(),
		Status:    outcome.Status,
		Cycle:     outcome.Cycle,
		Reason:    outcome.Reason,
		MaxDepth:  maxDepth,
	}, nil
}

// ────────────────────── FindDependents ──────────────────────

func (s *prerequisiteService) FindDependents(ctx context.Context, courseID string, candidateCode string) (*dto.DependentsResponse, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	target := strings.TrimSpace(candidateCode)
	if target == "" {
		target = course.Code
	}

	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("扫描课程失败", zap.Error(err))
		return nil, err
	}

	return &dto.DependentsResponse{
		TargetCode: target,
		Dependents: matchDependents(courses, course.CourseID, target),
	}, nil
}

// matchDependents 找出先修列表中包含 target 的课程（忽略大小写与首尾空白）。
// 匹配项保留存储中的原始写法；prerequisites 格式异常的课程被跳过。
func matchDependents(courses []model.Course, excludeID, target string) []dto.DependentCourseResponse {
	key := model.NormalizeCode(target)
	result := make([]dto.DependentCourseResponse, 0)

	for i := range courses {
		c := &courses[i]
		if c.CourseID == excludeID {
			continue
		}
		codes, ok := c.PrerequisiteCodes()
		if !ok {
			continue
		}

		var matched []string
		for _, code := range codes {
			if model.NormalizeCode(code) == key {
				matched = append(matched, code)
			}
		}
		if len(matched) == 0 {
			continue
		}

		result = append(result, dto.DependentCourseResponse{
			ID:                    c.CourseID,
			Code:                  c.Code,
			Title:                 c.Title,
			MatchingPrerequisites: matched,
		})
	}
	return result
}

// ── 内部辅助方法 ──

func (s *prerequisiteService) getCourse(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}
