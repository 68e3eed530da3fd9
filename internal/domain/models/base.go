package models

import "time"

type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginationResult 分页信息
type PaginationResult struct {
	Total      int64 `json:"total"`
	PageNum    int   `json:"pageNum"`
	PageSize   int   `json:"pageSize"`
	TotalPages int64 `json:"totalPages"`
}

// NewPaginationResult 创建一个新的分页结果对象
func NewPaginationResult(total int64, pageNum, pageSize int) PaginationResult {
	result := PaginationResult{
		Total:    total,
		PageNum:  pageNum,
		PageSize: pageSize,
	}
	if pageSize > 0 {
		result.TotalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return result
}
