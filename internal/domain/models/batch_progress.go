package models

import "time"

// BatchProgress 批量查询进度
type BatchProgress struct {
	FormID     uint               `json:"form_id"`
	Offset     int                `json:"offset"`
	Processed  int                `json:"processed"`
	Total      int64              `json:"total"`
	NextOffset int                `json:"next_offset"`
	Done       bool               `json:"done"`
	Statuses   map[SyncStatus]int `json:"statuses"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
