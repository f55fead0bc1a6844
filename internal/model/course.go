package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course 课程表，对应 courses
// 记录由教务目录维护；先修关系以课程代码（非 ID）冗余存储，不做引用完整性约束
type Course struct {
	CourseID      string         `gorm:"type:uuid;primaryKey"                json:"course_id"`
	Code          string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_courses_code" json:"code"`
	Title         string         `gorm:"type:varchar(200);not null"          json:"title"`
	Description   string         `gorm:"type:text;not null;default:''"       json:"description"`
	Credits       int            `gorm:"not null;default:0"                  json:"credits"`
	Prerequisites datatypes.JSON `gorm:"type:jsonb"                          json:"prerequisites"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 未指定主键时生成 UUID
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.CourseID == "" {
		c.CourseID = uuid.New().String()
	}
	return nil
}

// PrerequisiteCodes 返回先修课程代码；字段缺失或非数组时 ok=false
func (c *Course) PrerequisiteCodes() ([]string, bool) {
	return DecodeCodeList(c.Prerequisites)
}
