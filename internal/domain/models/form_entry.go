package models

// FormEntry 表单提交记录，每条记录对应一位住户
type FormEntry struct {
	BaseModel
	FormID uint `gorm:"index;not null" json:"form_id"`

	// 关联关系
	Fields []EntryFieldValue `gorm:"foreignKey:EntryID" json:"fields,omitempty"`
	Metas  []EntryMeta       `gorm:"foreignKey:EntryID" json:"metas,omitempty"`
	Notes  []EntryNote       `gorm:"foreignKey:EntryID" json:"notes,omitempty"`
}

// EntryFieldValue 表单字段值，FieldKey 为表单中的字段编号
type EntryFieldValue struct {
	BaseModel
	EntryID  uint   `gorm:"uniqueIndex:idx_entry_field;not null" json:"entry_id"`
	FieldKey string `gorm:"type:varchar(64);uniqueIndex:idx_entry_field;not null" json:"field_key"`
	Value    string `gorm:"type:text" json:"value"`
}

// EntryMeta 附加在表单记录上的元数据，同步状态和控制器身份缓存都存在这里
type EntryMeta struct {
	BaseModel
	EntryID   uint   `gorm:"uniqueIndex:idx_entry_meta;not null" json:"entry_id"`
	MetaKey   string `gorm:"type:varchar(128);uniqueIndex:idx_entry_meta;not null" json:"meta_key"`
	MetaValue string `gorm:"type:text" json:"meta_value"`
}

// TableName meta 不会被复数化，显式指定表名
func (EntryMeta) TableName() string {
	return "entry_metas"
}

// EntryNote 审计备注
type EntryNote struct {
	BaseModel
	EntryID uint   `gorm:"index;not null" json:"entry_id"`
	Note    string `gorm:"type:text;not null" json:"note"`
}

// Field 返回字段值，不存在时为空
func (e *FormEntry) Field(key string) string {
	if key == "" {
		return ""
	}
	for _, f := range e.Fields {
		if f.FieldKey == key {
			return f.Value
		}
	}
	return ""
}

// Meta 返回元数据值，不存在时为空
func (e *FormEntry) Meta(key string) string {
	for _, m := range e.Metas {
		if m.MetaKey == key {
			return m.MetaValue
		}
	}
	return ""
}

// ToResidentRecord 按字段映射组装住户同步记录，需预加载 Fields 和 Metas
func (e *FormEntry) ToResidentRecord(mapping FieldMapping) *ResidentRecord {
	return &ResidentRecord{
		ID:               e.ID,
		FormID:           e.FormID,
		Address:          e.Field(mapping.AddressFieldID),
		RFIDAssignment:   e.Field(mapping.RFIDFieldID),
		ControllerUserID: e.Meta(MetaControllerUserID),
		FirstName:        e.Meta(MetaControllerFirstName),
		LastName:         e.Meta(MetaControllerLastName),
		ExistingCards:    e.Meta(MetaExistingCards),
		SyncStatus:       ParseSyncStatus(e.Meta(MetaSyncStatus)),
		CreatedAt:        e.CreatedAt,
	}
}
