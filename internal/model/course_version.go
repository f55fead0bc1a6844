package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseVersion 课程版本快照表，对应 course_versions
// 快照创建后内容不可变，仅 is_active 可被翻转；版本永不删除
type CourseVersion struct {
	VersionID     string                      `gorm:"type:uuid;primaryKey"                                               json:"version_id"`
	CourseID      string                      `gorm:"type:uuid;not null;uniqueIndex:idx_course_versions_course_version,priority:1;index:idx_course_versions_course_active,priority:1" json:"course_id"`
	Version       int                         `gorm:"not null;uniqueIndex:idx_course_versions_course_version,priority:2" json:"version"`
	Title         string                      `gorm:"type:varchar(200);not null"                                         json:"title"`
	Description   string                      `gorm:"type:text;not null;default:''"                                      json:"description"`
	Credits       int                         `gorm:"not null;default:0"                                                 json:"credits"`
	Prerequisites datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"                                                json:"prerequisites"`
	IsActive      bool                        `gorm:"not null;default:false;index:idx_course_versions_course_active,priority:2" json:"is_active"`
	CreatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"                                 json:"created_at"`
	CreatedBy     *string                     `gorm:"type:varchar(64)"                                                   json:"created_by,omitempty"`
}

// TableName 指定表名
func (CourseVersion) TableName() string { return "course_versions" }

// BeforeCreate 未指定主键时生成 UUID
func (v *CourseVersion) BeforeCreate(_ *gorm.DB) error {
	if v.VersionID == "" {
		v.VersionID = uuid.New().String()
	}
	return nil
}
