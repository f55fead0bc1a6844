package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sims/backend/internal/dto"
	"sims/backend/internal/model"
	"sims/backend/internal/repository"
	pkgerrors "sims/backend/pkg/errors"
)

// ── 课程与版本模块业务错误 ──

var (
	ErrCourseNotFound        = fmt.Errorf("课程不存在: %w", pkgerrors.ErrNotFound)
	ErrCourseVersionNotFound = fmt.Errorf("课程版本不存在: %w", pkgerrors.ErrNotFound)
	ErrVersionLockBusy       = fmt.Errorf("该课程正在创建新版本: %w", pkgerrors.ErrLockBusy)
)

// CourseVersionService 课程版本业务接口
type CourseVersionService interface {
	CreateVersion(ctx context.Context, courseID string, req *dto.CreateCourseVersionRequest, callerID string) (*dto.CreateCourseVersionResponse, error)
	ListVersions(ctx context.Context, courseID string) ([]dto.CourseVersionResponse, error)
	// GetActiveVersion 无活动版本时返回 (nil, nil)
	GetActiveVersion(ctx context.Context, courseID string) (*dto.CourseVersionResponse, error)
	GetVersion(ctx context.Context, versionID string) (*dto.CourseVersionResponse, error)
	Archive(ctx context.Context, versionID string, callerID string) error
}

type courseVersionService struct {
	repo   *repository.Repository
	locker VersionLocker
	logger *zap.Logger
}

// NewCourseVersionService 创建 CourseVersionService 实例
func NewCourseVersionService(repo *repository.Repository, locker VersionLocker, logger *zap.Logger) CourseVersionService {
	if locker == nil {
		locker = NewLocalVersionLocker()
	}
	return &courseVersionService{repo: repo, locker: locker, logger: logger}
}

// ────────────────────── CreateVersion ──────────────────────

func (s *courseVersionService) CreateVersion(ctx context.Context, courseID string, req *dto.CreateCourseVersionRequest, callerID string) (*dto.CreateCourseVersionResponse, error) {
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, courseID)
	if err != nil {
		if !isLockBusy(err) {
			s.logger.Error("获取课程版本锁失败", zap.String("course_id", courseID), zap.Error(err))
		}
		return nil, err
	}
	defer unlock()

	snapshot := &model.CourseVersion{
		CourseID:      courseID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Credits:       req.Credits,
		Prerequisites: normalizePrerequisites(req.Prerequisites),
		IsActive:      true,
	}
	if callerID != "" {
		snapshot.CreatedBy = &callerID
	}

	// 读取最大版本号、停用旧版本、插入新版本在同一事务内完成
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Course.LockByID(ctx, courseID); err != nil {
			return err
		}

		existing, err := txRepo.CourseVersion.ListByCourse(ctx, courseID)
		if err != nil {
			return err
		}

		next := 1
		var active []string
		for _, v := range existing {
			if v.Version >= next {
				next = v.Version + 1
			}
			if v.IsActive {
				active = append(active, v.VersionID)
			}
		}
		if len(active) > 1 {
			s.logger.Warn("课程存在多个活动版本，已全部停用",
				zap.String("course_id", courseID),
				zap.Strings("version_ids", active),
			)
		}
		for _, id := range active {
			if err := txRepo.CourseVersion.SetActive(ctx, id, false); err != nil {
				return err
			}
		}

		snapshot.Version = next
		snapshot.CreatedAt = time.Now()
		return txRepo.CourseVersion.Create(ctx, snapshot)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("创建课程版本失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程版本已创建",
		zap.String("course_id", courseID),
		zap.String("version_id", snapshot.VersionID),
		zap.Int("version", snapshot.Version),
	)

	return &dto.CreateCourseVersionResponse{ID: snapshot.VersionID, Version: snapshot.Version}, nil
}

// ────────────────────── ListVersions ──────────────────────

// ListVersions 不校验课程是否存在，未知课程返回空列表
func (s *courseVersionService) ListVersions(ctx context.Context, courseID string) ([]dto.CourseVersionResponse, error) {
	versions, err := s.repo.CourseVersion.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("列出课程版本失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseVersionResponse, 0, len(versions))
	for i := range versions {
		result = append(result, *toCourseVersionResponse(&versions[i]))
	}
	return result, nil
}

// ────────────────────── GetActiveVersion ──────────────────────

func (s *courseVersionService) GetActiveVersion(ctx context.Context, courseID string) (*dto.CourseVersionResponse, error) {
	version, err := s.repo.CourseVersion.GetActiveByCourse(ctx, courseID)
	if err == nil {
		return toCourseVersionResponse(version), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("活动版本索引查询失败，回退为全量扫描", zap.String("course_id", courseID), zap.Error(err))
	}

	// 索引缺失或滞后时扫描课程的全部版本
	versions, err := s.repo.CourseVersion.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("扫描课程版本失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsActive {
			return toCourseVersionResponse(&versions[i]), nil
		}
	}
	return nil, nil
}

// ────────────────────── GetVersion ──────────────────────

func (s *courseVersionService) GetVersion(ctx context.Context, versionID string) (*dto.CourseVersionResponse, error) {
	version, err := s.repo.CourseVersion.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseVersionNotFound
		}
		s.logger.Error("查询课程版本失败", zap.String("version_id", versionID), zap.Error(err))
		return nil, err
	}
	return toCourseVersionResponse(version), nil
}

// ────────────────────── Archive ──────────────────────

// Archive 仅停用版本，不会指定新的活动版本；对已停用版本是空操作
func (s *courseVersionService) Archive(ctx context.Context, versionID string, callerID string) error {
	version, err := s.repo.CourseVersion.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseVersionNotFound
		}
		s.logger.Error("查询课程版本失败", zap.String("version_id", versionID), zap.Error(err))
		return err
	}
	if !version.IsActive {
		return nil
	}

	if err := s.repo.CourseVersion.SetActive(ctx, versionID, false); err != nil {
		s.logger.Error("归档课程版本失败", zap.String("version_id", versionID), zap.Error(err))
		return err
	}

	s.logger.Info("课程版本已归档",
		zap.String("course_id", version.CourseID),
		zap.String("version_id", versionID),
		zap.Int("version", version.Version),
		zap.String("caller_id", callerID),
	)
	return nil
}

// ── 内部辅助方法 ──

// normalizePrerequisites 去除空白与空项，按大小写不敏感去重并保留首次出现的写法
func normalizePrerequisites(codes []string) []string {
	result := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		key := model.NormalizeCode(code)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, code)
	}
	return result
}

func toCourseVersionResponse(v *model.CourseVersion) *dto.CourseVersionResponse {
	prereqs := []string(v.Prerequisites)
	if prereqs == nil {
		prereqs = []string{}
	}
	return &dto.CourseVersionResponse{
		ID:            v.VersionID,
		CourseID:      v.CourseID,
		Version:       v.Version,
		Title:         v.Title,
		Description:   v.Description,
		Credits:       v.Credits,
		Prerequisites: prereqs,
		IsActive:      v.IsActive,
		CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
