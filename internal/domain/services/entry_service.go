package services

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
)

// ErrEntryNotFound 表单记录不存在
var ErrEntryNotFound = errors.New("表单记录不存在")

// EntryFilter 按元数据过滤表单记录
type EntryFilter struct {
	MetaKey   string
	MetaValue string
}

// InterfaceEntryService 定义表单记录存储接口
type InterfaceEntryService interface {
	GetEntry(id uint) (*models.FormEntry, error)
	CreateEntry(formID uint, fields map[string]string) (*models.FormEntry, error)
	GetField(entryID uint, fieldKey string) (string, error)
	UpdateField(entryID uint, fieldKey, value string) error
	GetMeta(entryID uint, metaKey string) (string, error)
	SetMeta(entryID uint, metaKey, value string) error
	SetMetas(entryID uint, metas map[string]string) error
	ListEntries(formID uint, filter EntryFilter, offset, limit int) ([]models.FormEntry, error)
	CountEntries(formID uint, filter EntryFilter) (int64, error)
	AddAuditNote(entryID uint, text string) error
	LoadRecord(entryID uint, mapping models.FieldMapping) (*models.ResidentRecord, error)
}

// EntryService 基于 gorm 的表单记录存储
type EntryService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewEntryService 创建一个新的表单记录服务
func NewEntryService(db *gorm.DB, cfg *config.Config) InterfaceEntryService {
	return &EntryService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetEntry 获取表单记录及其字段、元数据和备注
func (s *EntryService) GetEntry(id uint) (*models.FormEntry, error) {
	var entry models.FormEntry
	err := s.DB.Preload("Fields").Preload("Metas").Preload("Notes").First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// 2 CreateEntry 创建表单记录
func (s *EntryService) CreateEntry(formID uint, fields map[string]string) (*models.FormEntry, error) {
	if formID == 0 {
		return nil, errors.New("必须提供有效的表单ID")
	}

	entry := models.FormEntry{FormID: formID}
	for key, value := range fields {
		if key == "" {
			continue
		}
		entry.Fields = append(entry.Fields, models.EntryFieldValue{FieldKey: key, Value: value})
	}

	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("创建表单记录失败: %w", err)
	}
	return &entry, nil
}

// 3 GetField 获取字段值，字段不存在时返回空字符串
func (s *EntryService) GetField(entryID uint, fieldKey string) (string, error) {
	if err := s.ensureEntry(entryID); err != nil {
		return "", err
	}
	if fieldKey == "" {
		return "", nil
	}

	var field models.EntryFieldValue
	err := s.DB.Where(&models.EntryFieldValue{EntryID: entryID, FieldKey: fieldKey}).First(&field).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return field.Value, nil
}

// 4 UpdateField 写入字段值，不存在时创建
func (s *EntryService) UpdateField(entryID uint, fieldKey, value string) error {
	if fieldKey == "" {
		return errors.New("字段编号不能为空")
	}
	if err := s.ensureEntry(entryID); err != nil {
		return err
	}

	var field models.EntryFieldValue
	return s.DB.Where(models.EntryFieldValue{EntryID: entryID, FieldKey: fieldKey}).
		Assign(map[string]interface{}{"value": value}).
		FirstOrCreate(&field).Error
}

// 5 GetMeta 获取元数据，不存在时返回空字符串
func (s *EntryService) GetMeta(entryID uint, metaKey string) (string, error) {
	if err := s.ensureEntry(entryID); err != nil {
		return "", err
	}

	var meta models.EntryMeta
	err := s.DB.Where("entry_id = ? AND meta_key = ?", entryID, metaKey).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.MetaValue, nil
}

// 6 SetMeta 写入元数据，不存在时创建
func (s *EntryService) SetMeta(entryID uint, metaKey, value string) error {
	if err := s.ensureEntry(entryID); err != nil {
		return err
	}

	var meta models.EntryMeta
	return s.DB.Where(models.EntryMeta{EntryID: entryID, MetaKey: metaKey}).
		Assign(map[string]interface{}{"meta_value": value}).
		FirstOrCreate(&meta).Error
}

// 6.1 SetMetas 在一个事务中写入多个元数据，任一失败全部回滚
func (s *EntryService) SetMetas(entryID uint, metas map[string]string) error {
	if err := s.ensureEntry(entryID); err != nil {
		return err
	}

	keys := make([]string, 0, len(metas))
	for key := range metas {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			var meta models.EntryMeta
			err := tx.Where(models.EntryMeta{EntryID: entryID, MetaKey: key}).
				Assign(map[string]interface{}{"meta_value": metas[key]}).
				FirstOrCreate(&meta).Error
			if err != nil {
				return fmt.Errorf("写入元数据 %s 失败: %w", key, err)
			}
		}
		return nil
	})
}

// 7 ListEntries 按记录ID升序分页获取表单记录，预加载字段和元数据
func (s *EntryService) ListEntries(formID uint, filter EntryFilter, offset, limit int) ([]models.FormEntry, error) {
	var entries []models.FormEntry
	query := s.filtered(formID, filter).
		Preload("Fields").
		Preload("Metas").
		Order("form_entries.id ASC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// 8 CountEntries 统计表单记录数量
func (s *EntryService) CountEntries(formID uint, filter EntryFilter) (int64, error) {
	var total int64
	if err := s.filtered(formID, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// 9 AddAuditNote 添加审计备注
func (s *EntryService) AddAuditNote(entryID uint, text string) error {
	if err := s.ensureEntry(entryID); err != nil {
		return err
	}
	return s.DB.Create(&models.EntryNote{EntryID: entryID, Note: text}).Error
}

// 10 LoadRecord 按字段映射组装住户同步记录
func (s *EntryService) LoadRecord(entryID uint, mapping models.FieldMapping) (*models.ResidentRecord, error) {
	var entry models.FormEntry
	err := s.DB.Preload("Fields").Preload("Metas").First(&entry, entryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry.ToResidentRecord(mapping), nil
}

func (s *EntryService) filtered(formID uint, filter EntryFilter) *gorm.DB {
	query := s.DB.Model(&models.FormEntry{})
	if formID != 0 {
		query = query.Where("form_entries.form_id = ?", formID)
	}
	if filter.MetaKey != "" {
		query = query.Joins(
			"JOIN entry_metas ON entry_metas.entry_id = form_entries.id AND entry_metas.meta_key = ? AND entry_metas.meta_value = ?",
			filter.MetaKey, filter.MetaValue,
		)
	}
	return query
}

func (s *EntryService) ensureEntry(entryID uint) error {
	var count int64
	if err := s.DB.Model(&models.FormEntry{}).Where("id = ?", entryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrEntryNotFound
	}
	return nil
}
