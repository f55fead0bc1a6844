package service

import (
	"go.uber.org/zap"

	"sims/backend/config"
	"sims/backend/internal/repository"
	"sims/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	CourseVersion CourseVersionService
	Prerequisite  PrerequisiteService
	Export        ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时版本创建仅使用进程内锁（单实例部署）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	locker := NewLocalVersionLocker()
	if rdb != nil {
		locker = ChainVersionLockers(
			locker,
			NewDistributedVersionLocker(rdb, cfg.Catalog.VersionLockTTL, cfg.Catalog.VersionLockWait, logger),
		)
	}

	versionSvc := NewCourseVersionService(repo, locker, logger)
	prereqSvc := NewPrerequisiteService(repo, cfg.Catalog.MaxDepth, logger)

	return &Service{
		CourseVersion: versionSvc,
		Prerequisite:  prereqSvc,
		Export:        NewExportService(prereqSvc, versionSvc, logger),
	}
}
