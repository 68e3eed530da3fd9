package models

// SyncSetting 同步设置键值表
type SyncSetting struct {
	BaseModel
	Key   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// 设置键
const (
	SettingEndpointURL    = "endpoint_url"
	SettingUsername       = "username"
	SettingPassword       = "password"
	SettingFormID         = "form_id"
	SettingAddressFieldID = "address_field_id"
	SettingRFIDFieldID    = "rfid_field_id"
	SettingLogMode        = "log_mode"
)

// SyncSettings 生效的同步设置，数据库中的值覆盖环境变量默认值
type SyncSettings struct {
	EndpointURL    string `json:"endpoint_url"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	FormID         uint   `json:"form_id"`
	AddressFieldID string `json:"address_field_id"`
	RFIDFieldID    string `json:"rfid_field_id"`
	LogMode        string `json:"log_mode"`
}

// Mapping 返回字段映射
func (s *SyncSettings) Mapping() FieldMapping {
	return FieldMapping{
		FormID:         s.FormID,
		AddressFieldID: s.AddressFieldID,
		RFIDFieldID:    s.RFIDFieldID,
	}
}
