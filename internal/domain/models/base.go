package models

import "time"

// BaseModel 所有业务表共享的主键与时间戳
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginationQuery 通用分页参数
type PaginationQuery struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 修正越界的分页参数
func (q *PaginationQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 20
	}
}

// Offset 计算偏移量
func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// AllModels 返回需要自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Community{},
		&Phase{},
		&User{},
		&Owner{},
		&VoteRound{},
		&Vote{},
		&OperationLog{},
	}
}
