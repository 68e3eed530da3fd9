package models

import "time"

// SyncStatus 住户记录的同步状态
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "Unsynced" // 元数据不存在
	SyncStatusFound    SyncStatus = "Found"
	SyncStatusNotFound SyncStatus = "NotFound"
	SyncStatusError    SyncStatus = "Error"
	SyncStatusSynced   SyncStatus = "Synced"
)

// 表单记录元数据键
const (
	MetaControllerUserID    = "prima_usr_id"
	MetaControllerFirstName = "prima_ctrl_first_name"
	MetaControllerLastName  = "prima_ctrl_last_name"
	MetaExistingCards       = "prima_existing_cards"
	MetaSyncStatus          = "prima_sync_status"
)

// ParseSyncStatus 空值或未知值视为 Unsynced
func ParseSyncStatus(raw string) SyncStatus {
	switch s := SyncStatus(raw); s {
	case SyncStatusFound, SyncStatusNotFound, SyncStatusError, SyncStatusSynced:
		return s
	default:
		return SyncStatusUnsynced
	}
}

// FieldMapping 表单及其地址、RFID 字段编号
type FieldMapping struct {
	FormID         uint   `json:"form_id"`
	AddressFieldID string `json:"address_field_id"`
	RFIDFieldID    string `json:"rfid_field_id"`
}

// ResidentRecord 从表单记录组装出的住户同步视图
type ResidentRecord struct {
	ID               uint       `json:"id"`
	FormID           uint       `json:"form_id"`
	Address          string     `json:"address"`
	RFIDAssignment   string     `json:"rfid_assignment"`
	ControllerUserID string     `json:"controller_user_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	ExistingCards    string     `json:"existing_cards"`
	SyncStatus       SyncStatus `json:"sync_status"`
	CreatedAt        time.Time  `json:"created_at"`
}

// HasMapping 是否已从控制器缓存姓名
func (r *ResidentRecord) HasMapping() bool {
	return r.FirstName != "" && r.LastName != ""
}
