package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// BaseModel 通用审计字段（业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// ── 先修课程代码列表 ──

// DecodeCodeList 将 JSON 列解析为课程代码列表。
// 仅当值为 JSON 数组时 ok=true；数组内非字符串元素被忽略。
// NULL、空值、对象或标量均视为格式异常（ok=false）。
func DecodeCodeList(raw datatypes.JSON) (codes []string, ok bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		// JSON null
		return nil, false
	}
	codes = make([]string, 0, len(items))
	for _, item := range items {
		if s, isStr := item.(string); isStr {
			codes = append(codes, s)
		}
	}
	return codes, true
}

// EncodeCodeList 将课程代码列表编码为 JSON 列（nil 编码为空数组）
func EncodeCodeList(codes []string) datatypes.JSON {
	if codes == nil {
		codes = []string{}
	}
	b, _ := json.Marshal(codes)
	return datatypes.JSON(b)
}

// NormalizeCode 课程代码比较键：去除首尾空白并统一大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
