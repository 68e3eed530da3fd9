package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/pkg/logger"
)

// ErrInvalidLogMode 日志模式无效
var ErrInvalidLogMode = errors.New("日志模式必须是 disabled、simple 或 debug")

// InterfaceSettingsService 定义同步设置接口
type InterfaceSettingsService interface {
	GetSettings() (*models.SyncSettings, error)
	SaveSettings(settings *models.SyncSettings) error
	GetLogMode() string
}

// SettingsService 同步设置，数据库中的值覆盖环境变量默认值
type SettingsService struct {
	DB     *gorm.DB
	Config *config.Config

	mu     sync.RWMutex
	cached *models.SyncSettings
}

// NewSettingsService 创建一个新的设置服务
func NewSettingsService(db *gorm.DB, cfg *config.Config) InterfaceSettingsService {
	return &SettingsService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetSettings 获取生效的同步设置
func (s *SettingsService) GetSettings() (*models.SyncSettings, error) {
	s.mu.RLock()
	if s.cached != nil {
		settings := *s.cached
		s.mu.RUnlock()
		return &settings, nil
	}
	s.mu.RUnlock()

	var rows []models.SyncSetting
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("读取同步设置失败: %w", err)
	}

	settings := s.defaults()
	for _, row := range rows {
		applySetting(settings, row.Key, row.Value)
	}

	s.mu.Lock()
	s.cached = settings
	s.mu.Unlock()

	result := *settings
	return &result, nil
}

// 2 SaveSettings 保存同步设置。密码为空时保留原密码
func (s *SettingsService) SaveSettings(settings *models.SyncSettings) error {
	if settings == nil {
		return errors.New("设置不能为空")
	}

	mode := strings.ToLower(strings.TrimSpace(settings.LogMode))
	if mode == "" {
		mode = logger.ModeSimple
	}
	if mode != logger.ModeDisabled && mode != logger.ModeSimple && mode != logger.ModeDebug {
		return ErrInvalidLogMode
	}

	values := map[string]string{
		models.SettingEndpointURL:    strings.TrimSpace(settings.EndpointURL),
		models.SettingUsername:       strings.TrimSpace(settings.Username),
		models.SettingFormID:         strconv.FormatUint(uint64(settings.FormID), 10),
		models.SettingAddressFieldID: strings.TrimSpace(settings.AddressFieldID),
		models.SettingRFIDFieldID:    strings.TrimSpace(settings.RFIDFieldID),
		models.SettingLogMode:        mode,
	}
	if settings.Password != "" {
		values[models.SettingPassword] = settings.Password
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			var row models.SyncSetting
			err := tx.Where(models.SyncSetting{Key: key}).
				Assign(map[string]interface{}{"value": value}).
				FirstOrCreate(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("保存同步设置失败: %w", err)
	}

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	logger.Info("同步设置已更新: endpoint=%s, form=%d, log_mode=%s", values[models.SettingEndpointURL], settings.FormID, mode)
	return nil
}

// 3 GetLogMode 获取当前日志模式，读取失败时使用环境变量默认值
func (s *SettingsService) GetLogMode() string {
	settings, err := s.GetSettings()
	if err != nil {
		return s.defaults().LogMode
	}
	return settings.LogMode
}

func (s *SettingsService) defaults() *models.SyncSettings {
	settings := &models.SyncSettings{LogMode: logger.ModeSimple}
	if s.Config == nil {
		return settings
	}

	settings.EndpointURL = s.Config.PrimaControllerURL
	settings.Username = s.Config.PrimaAdminUser
	settings.Password = s.Config.PrimaAdminPass
	settings.FormID = s.Config.PrimaFormID
	settings.AddressFieldID = s.Config.PrimaAddressFieldID
	settings.RFIDFieldID = s.Config.PrimaRFIDFieldID
	if s.Config.PrimaLogMode != "" {
		settings.LogMode = s.Config.PrimaLogMode
	}
	return settings
}

func applySetting(settings *models.SyncSettings, key, value string) {
	switch key {
	case models.SettingEndpointURL:
		settings.EndpointURL = value
	case models.SettingUsername:
		settings.Username = value
	case models.SettingPassword:
		settings.Password = value
	case models.SettingFormID:
		if id, err := strconv.ParseUint(value, 10, 32); err == nil {
			settings.FormID = uint(id)
		}
	case models.SettingAddressFieldID:
		settings.AddressFieldID = value
	case models.SettingRFIDFieldID:
		settings.RFIDFieldID = value
	case models.SettingLogMode:
		if value != "" {
			settings.LogMode = value
		}
	}
}
