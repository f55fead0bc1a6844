package repository

import (
	"context"

	"gorm.io/gorm"

	"sims/backend/internal/model"
)

// CourseVersionRepository 课程版本数据访问接口
type CourseVersionRepository interface {
	Create(ctx context.Context, version *model.CourseVersion) error
	GetByID(ctx context.Context, id string) (*model.CourseVersion, error)
	// ListByCourse 课程的全部版本，按 version 升序
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseVersion, error)
	// GetActiveByCourse 通过 (course_id, is_active) 复合索引查找活动版本
	GetActiveByCourse(ctx context.Context, courseID string) (*model.CourseVersion, error)
	// SetActive 仅修改 is_active 标记
	SetActive(ctx context.Context, id string, active bool) error
}

type courseVersionRepo struct {
	db *gorm.DB
}

// NewCourseVersionRepo 创建 CourseVersionRepository 实例
func NewCourseVersionRepo(db *gorm.DB) CourseVersionRepository {
	return &courseVersionRepo{db: db}
}

func (r *courseVersionRepo) Create(ctx context.Context, version *model.CourseVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *courseVersionRepo) GetByID(ctx context.Context, id string) (*model.CourseVersion, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var version model.CourseVersion
	err := r.db.WithContext(ctx).
		Where("version_id = ?", id).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *courseVersionRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseVersion, error) {
	if !validID(courseID) {
		return []model.CourseVersion{}, nil
	}
	var versions []model.CourseVersion
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("version ASC").
		Find(&versions).Error
	return versions, err
}

func (r *courseVersionRepo) GetActiveByCourse(ctx context.Context, courseID string) (*model.CourseVersion, error) {
	if !validID(courseID) {
		return nil, gorm.ErrRecordNotFound
	}
	var version model.CourseVersion
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("version DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *courseVersionRepo) SetActive(ctx context.Context, id string, active bool) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).
		Model(&model.CourseVersion{}).
		Where("version_id = ?", id).
		Update("is_active", active).Error
}
