package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口（目录引擎的实体访问器）
type Repository struct {
	db            *gorm.DB
	Course        CourseRepository
	CourseVersion CourseVersionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Course:        NewCourseRepo(db),
		CourseVersion: NewCourseVersionRepo(db),
	}
}

// WithTx 返回绑定到事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn；fn 返回错误时回滚。
// 未绑定数据库（单元测试中手工组装的聚合）时直接以当前聚合执行。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// validID 主键均为 UUID；非法格式在 PostgreSQL 上会触发类型错误，按记录不存在处理
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
