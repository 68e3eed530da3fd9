package models

import (
	"time"
)

// 操作类型
const (
	OperationTestConnection = "test_connection"
	OperationLookupBatch    = "lookup_batch"
	OperationLookupOne      = "lookup_one"
	OperationUpdateRFID     = "update_local_rfid"
	OperationSyncOne        = "sync_one"
	OperationEntryCreated   = "entry_created"
)

// SyncOperationLog 表示操作员触发的同步操作日志
type SyncOperationLog struct {
	BaseModel
	OperationID   string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"operation_id"`
	OperationType string    `gorm:"type:varchar(100);not null;index" json:"operation_type"` // 如: test_connection, lookup_batch, sync_one
	EntryID       uint      `gorm:"index" json:"entry_id"`                                  // 0 表示与单条记录无关
	Status        string    `gorm:"type:varchar(20)" json:"status"`                         // 操作后的同步状态
	Message       string    `gorm:"type:text" json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Success       bool      `json:"success"` // 操作是否成功
}
