package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/internal/infrastructure/prima"
	"prima-sync-service/pkg/logger"
)

// 操作员提示信息
const (
	MessageConnectionSuccessful = "Connection Successful!"
	MessageLocalEntryUpdated    = "Local entry updated."
	MessageSyncedSuccessfully   = "Synced Successfully!"
)

const defaultBatchPageSize = 10

// 配置缺失错误
var (
	ErrFormNotConfigured         = errors.New("Form not configured.")
	ErrAddressFieldNotConfigured = errors.New("Address field not configured.")
	ErrRFIDFieldNotConfigured    = errors.New("RFID field not configured.")
	ErrRFIDRequired              = errors.New("RFID is required.")
)

// ClientFactory 根据连接配置创建控制器客户端
type ClientFactory func(cfg prima.ControllerConfig) (prima.InterfaceControllerClient, error)

// InterfaceSyncService 定义操作员同步操作接口
type InterfaceSyncService interface {
	TestConnection(ctx context.Context) (string, error)
	RunLookupBatch(ctx context.Context, offset int) (*models.BatchProgress, error)
	GetBatchProgress() (*models.BatchProgress, error)
	LookupOne(ctx context.Context, entryID uint) (*models.ResidentRecord, error)
	UpdateLocalRFID(entryID uint, rfid string) (string, error)
	SyncOne(ctx context.Context, entryID uint, rfid string) (*models.ResidentRecord, string, error)
	HandleSubmission(ctx context.Context, formID uint, fields map[string]string) (*models.ResidentRecord, error)
	HandleEntryCreated(ctx context.Context, entryID uint) (*models.ResidentRecord, error)
	GetRecord(entryID uint) (*models.ResidentRecord, error)
	GetPendingRecords(page, pageSize int) ([]models.ResidentRecord, int64, error)
	GetOperationLogs(page, pageSize int, entryID uint) ([]models.SyncOperationLog, int64, error)
}

// SyncService 操作员同步操作。每个请求同步执行到结束
type SyncService struct {
	DB       *gorm.DB
	Config   *config.Config
	Entries  InterfaceEntryService
	Settings InterfaceSettingsService
	Redis    InterfaceRedisService // 为 nil 时进度只保存在内存中
	MQTT     InterfaceMQTTService  // 为 nil 时不发布事件
	Activity logger.InterfaceActivityLogger

	// ClientFactory 测试中替换为假客户端
	ClientFactory ClientFactory

	clientMu  sync.Mutex
	client    prima.InterfaceControllerClient
	clientKey string

	progressMu sync.RWMutex
	progress   map[uint]*models.BatchProgress
}

// NewSyncService 创建一个新的同步服务
func NewSyncService(
	db *gorm.DB,
	cfg *config.Config,
	entries InterfaceEntryService,
	settings InterfaceSettingsService,
	redisService InterfaceRedisService,
	mqttService InterfaceMQTTService,
	activity logger.InterfaceActivityLogger,
) InterfaceSyncService {
	if activity == nil {
		activity = logger.NopActivityLogger{}
	}

	s := &SyncService{
		DB:       db,
		Config:   cfg,
		Entries:  entries,
		Settings: settings,
		Redis:    redisService,
		MQTT:     mqttService,
		Activity: activity,
		progress: make(map[uint]*models.BatchProgress),
	}
	s.ClientFactory = s.newControllerClient
	return s
}

// 1 TestConnection 使用当前设置登录控制器
func (s *SyncService) TestConnection(ctx context.Context) (string, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return "", err
	}

	client, err := s.controllerClient(settings)
	if err == nil {
		err = client.TestConnection(ctx)
	}
	if err != nil {
		s.Activity.Log("Connection test failed.", err.Error(), logger.LevelInfo)
		s.recordOperation(models.OperationTestConnection, 0, "", err.Error(), false)
		s.publishSystemMessage(models.OperationTestConnection, "error", err.Error(), map[string]string{
			"endpoint_url": settings.EndpointURL,
		})
		return "", err
	}

	s.Activity.Log(MessageConnectionSuccessful, nil, logger.LevelInfo)
	s.recordOperation(models.OperationTestConnection, 0, "", MessageConnectionSuccessful, true)
	return MessageConnectionSuccessful, nil
}

// 2 RunLookupBatch 从 offset 开始查询一页记录。单条失败不影响其他记录
func (s *SyncService) RunLookupBatch(ctx context.Context, offset int) (*models.BatchProgress, error) {
	if offset < 0 {
		offset = 0
	}

	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings.FormID == 0 {
		return nil, ErrFormNotConfigured
	}
	if settings.AddressFieldID == "" {
		return nil, ErrAddressFieldNotConfigured
	}

	client, err := s.controllerClient(settings)
	if err != nil {
		return nil, err
	}

	total, err := s.Entries.CountEntries(settings.FormID, EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("统计表单记录失败: %w", err)
	}
	entries, err := s.Entries.ListEntries(settings.FormID, EntryFilter{}, offset, s.pageSize())
	if err != nil {
		return nil, fmt.Errorf("获取表单记录失败: %w", err)
	}

	engine := NewResidentSyncService(s.Entries, client, s.Activity)
	mapping := settings.Mapping()
	statuses := make(map[models.SyncStatus]int)
	failed := 0

	for i := range entries {
		record := entries[i].ToResidentRecord(mapping)
		status, err := engine.PerformLookup(ctx, record)
		statuses[status]++
		if err != nil {
			failed++
			logger.Warning("批量查询: 记录 %d 查询失败: %v", record.ID, err)
		}
		s.publishEvent(models.OperationLookupBatch, record.ID, status, err == nil, errorMessage(err, string(status)))
	}

	processed := offset + len(entries)
	progress := &models.BatchProgress{
		FormID:     settings.FormID,
		Offset:     offset,
		Processed:  processed,
		Total:      total,
		NextOffset: processed,
		Done:       len(entries) == 0 || int64(processed) >= total,
		Statuses:   statuses,
		UpdatedAt:  time.Now(),
	}
	s.saveProgress(progress)

	message := fmt.Sprintf("Processed %d of %d entries (%d failed).", processed, total, failed)
	s.Activity.Log(message, nil, logger.LevelInfo)
	s.recordOperation(models.OperationLookupBatch, 0, "", message, failed == 0)
	return progress, nil
}

// 3 GetBatchProgress 获取当前表单最近一次批量查询的进度
func (s *SyncService) GetBatchProgress() (*models.BatchProgress, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		progress, err := s.Redis.GetBatchProgress(settings.FormID)
		if err != nil {
			logger.Warning("读取Redis批量进度失败: %v", err)
		} else if progress != nil {
			return progress, nil
		}
	}

	s.progressMu.RLock()
	cached, ok := s.progress[settings.FormID]
	s.progressMu.RUnlock()
	if ok {
		progress := *cached
		return &progress, nil
	}

	total, err := s.Entries.CountEntries(settings.FormID, EntryFilter{})
	if err != nil {
		return nil, err
	}
	return &models.BatchProgress{
		FormID:   settings.FormID,
		Total:    total,
		Done:     total == 0,
		Statuses: map[models.SyncStatus]int{},
	}, nil
}

// 4 LookupOne 查询单条记录。查询失败时返回更新后的记录和错误
func (s *SyncService) LookupOne(ctx context.Context, entryID uint) (*models.ResidentRecord, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings.AddressFieldID == "" {
		return nil, ErrAddressFieldNotConfigured
	}

	record, err := s.Entries.LoadRecord(entryID, settings.Mapping())
	if err != nil {
		return nil, err
	}

	client, err := s.controllerClient(settings)
	if err != nil {
		return record, err
	}

	status, err := NewResidentSyncService(s.Entries, client, s.Activity).PerformLookup(ctx, record)
	s.recordOperation(models.OperationLookupOne, entryID, status, errorMessage(err, string(status)), err == nil)
	return record, err
}

// 5 UpdateLocalRFID 只更新本地记录的 RFID 字段
func (s *SyncService) UpdateLocalRFID(entryID uint, rfid string) (string, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return "", err
	}
	if settings.RFIDFieldID == "" {
		return "", ErrRFIDFieldNotConfigured
	}

	rfid = strings.TrimSpace(rfid)
	if err := s.Entries.UpdateField(entryID, settings.RFIDFieldID, rfid); err != nil {
		return "", err
	}

	s.Activity.Log(fmt.Sprintf("Entry %d: local RFID set to %q.", entryID, rfid), nil, logger.LevelInfo)
	s.recordOperation(models.OperationUpdateRFID, entryID, "", MessageLocalEntryUpdated, true)
	return MessageLocalEntryUpdated, nil
}

// 6 SyncOne 将卡号推送到控制器。rfid 为空时使用记录中保存的卡号
func (s *SyncService) SyncOne(ctx context.Context, entryID uint, rfid string) (*models.ResidentRecord, string, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, "", err
	}

	record, err := s.Entries.LoadRecord(entryID, settings.Mapping())
	if err != nil {
		return nil, "", err
	}

	rfid = strings.TrimSpace(rfid)
	if rfid == "" {
		rfid = strings.TrimSpace(record.RFIDAssignment)
	}
	if rfid == "" {
		return record, "", ErrRFIDRequired
	}

	client, err := s.controllerClient(settings)
	if err != nil {
		return record, "", err
	}

	status, err := NewResidentSyncService(s.Entries, client, s.Activity).PerformCardPush(ctx, record, rfid)
	if err != nil {
		s.recordOperation(models.OperationSyncOne, entryID, status, err.Error(), false)
		return record, "", err
	}

	if settings.RFIDFieldID != "" && record.RFIDAssignment != rfid {
		if err := s.Entries.UpdateField(entryID, settings.RFIDFieldID, rfid); err != nil {
			logger.Warning("记录 %d 卡号已推送，但更新本地字段失败: %v", entryID, err)
		} else {
			record.RFIDAssignment = rfid
		}
	}

	s.recordOperation(models.OperationSyncOne, entryID, status, MessageSyncedSuccessfully, true)
	return record, MessageSyncedSuccessfully, nil
}

// 7 HandleSubmission 保存新提交的表单记录并触发查询
func (s *SyncService) HandleSubmission(ctx context.Context, formID uint, fields map[string]string) (*models.ResidentRecord, error) {
	entry, err := s.Entries.CreateEntry(formID, fields)
	if err != nil {
		return nil, err
	}
	return s.HandleEntryCreated(ctx, entry.ID)
}

// 8 HandleEntryCreated 新记录创建后的处理。只处理配置的表单，地址字段未配置时跳过
func (s *SyncService) HandleEntryCreated(ctx context.Context, entryID uint) (*models.ResidentRecord, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}

	record, err := s.Entries.LoadRecord(entryID, settings.Mapping())
	if err != nil {
		return nil, err
	}

	if settings.FormID == 0 || record.FormID != settings.FormID {
		logger.Debug("记录 %d 不属于同步表单 %d，忽略", entryID, settings.FormID)
		return record, nil
	}
	if settings.AddressFieldID == "" {
		s.Activity.Log(fmt.Sprintf("Entry %d skipped: address field not configured.", entryID), nil, logger.LevelInfo)
		return record, nil
	}

	client, err := s.controllerClient(settings)
	if err != nil {
		s.Activity.Log(fmt.Sprintf("Entry %d not synced.", entryID), err.Error(), logger.LevelInfo)
		s.recordOperation(models.OperationEntryCreated, entryID, record.SyncStatus, err.Error(), false)
		return record, err
	}

	status, err := NewResidentSyncService(s.Entries, client, s.Activity).PerformLookup(ctx, record)
	s.recordOperation(models.OperationEntryCreated, entryID, status, errorMessage(err, string(status)), err == nil)
	return record, err
}

// 9 GetRecord 获取住户同步记录
func (s *SyncService) GetRecord(entryID uint) (*models.ResidentRecord, error) {
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}
	return s.Entries.LoadRecord(entryID, settings.Mapping())
}

// 10 GetPendingRecords 获取已找到控制器用户、等待推送卡号的记录
func (s *SyncService) GetPendingRecords(page, pageSize int) ([]models.ResidentRecord, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, 0, err
	}
	if settings.FormID == 0 {
		return nil, 0, ErrFormNotConfigured
	}

	filter := EntryFilter{MetaKey: models.MetaSyncStatus, MetaValue: string(models.SyncStatusFound)}
	total, err := s.Entries.CountEntries(settings.FormID, filter)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.Entries.ListEntries(settings.FormID, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	mapping := settings.Mapping()
	records := make([]models.ResidentRecord, 0, len(entries))
	for i := range entries {
		records = append(records, *entries[i].ToResidentRecord(mapping))
	}
	return records, total, nil
}

// 11 GetOperationLogs 分页获取操作日志，entryID 为 0 时返回全部
func (s *SyncService) GetOperationLogs(page, pageSize int, entryID uint) ([]models.SyncOperationLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := s.DB.Model(&models.SyncOperationLog{})
	if entryID != 0 {
		query = query.Where("entry_id = ?", entryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SyncOperationLog
	if err := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// controllerClient 复用客户端及其会话，连接设置变化时重新创建
func (s *SyncService) controllerClient(settings *models.SyncSettings) (prima.InterfaceControllerClient, error) {
	key := strings.Join([]string{settings.EndpointURL, settings.Username, settings.Password}, "\x00")

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.client != nil && s.clientKey == key {
		return s.client, nil
	}

	cfg := prima.ControllerConfig{
		EndpointURL: settings.EndpointURL,
		Username:    settings.Username,
		Password:    settings.Password,
	}
	if s.Config != nil {
		cfg.LoginTimeout = s.Config.PrimaLoginTimeout
		cfg.RequestTimeout = s.Config.PrimaRequestTimeout
	}

	client, err := s.ClientFactory(cfg)
	if err != nil {
		return nil, err
	}
	s.client = client
	s.clientKey = key
	return client, nil
}

func (s *SyncService) newControllerClient(cfg prima.ControllerConfig) (prima.InterfaceControllerClient, error) {
	client, err := prima.NewClient(cfg, prima.WithActivityLogger(s.Activity))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *SyncService) pageSize() int {
	if s.Config != nil && s.Config.BatchPageSize > 0 {
		return s.Config.BatchPageSize
	}
	return defaultBatchPageSize
}

func (s *SyncService) saveProgress(progress *models.BatchProgress) {
	s.progressMu.Lock()
	stored := *progress
	s.progress[progress.FormID] = &stored
	s.progressMu.Unlock()

	if s.Redis != nil {
		if err := s.Redis.SaveBatchProgress(progress); err != nil {
			logger.Warning("缓存批量进度失败: %v", err)
		}
	}
}

// recordOperation 写入操作日志并发布事件，失败只记录日志
func (s *SyncService) recordOperation(action string, entryID uint, status models.SyncStatus, message string, success bool) {
	entry := models.SyncOperationLog{
		OperationID:   uuid.New().String(),
		OperationType: action,
		EntryID:       entryID,
		Status:        string(status),
		Message:       message,
		Timestamp:     time.Now(),
		Success:       success,
	}
	if s.DB != nil {
		if err := s.DB.Create(&entry).Error; err != nil {
			logger.Error("写入操作日志失败: %v", err)
		}
	}

	if entryID != 0 {
		s.publishEvent(action, entryID, status, success, message)
	}
}

func (s *SyncService) publishEvent(action string, entryID uint, status models.SyncStatus, success bool, message string) {
	if s.MQTT == nil {
		return
	}
	err := s.MQTT.PublishSyncEvent(&SyncEvent{
		OperationID: uuid.New().String(),
		Action:      action,
		EntryID:     entryID,
		Status:      status,
		Success:     success,
		Message:     message,
	})
	if err != nil && !errors.Is(err, ErrMQTTNotConnected) {
		logger.Warning("发布同步事件失败: %v", err)
	}
}

// publishSystemMessage 控制器不可用等需要运维关注的情况发布到系统主题
func (s *SyncService) publishSystemMessage(messageType, level, message string, data interface{}) {
	if s.MQTT == nil {
		return
	}
	err := s.MQTT.PublishSystemMessage(messageType, level, message, data)
	if err != nil && !errors.Is(err, ErrMQTTNotConnected) {
		logger.Warning("发布系统消息失败: %v", err)
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultBatchPageSize
	}
	return page, pageSize
}

func errorMessage(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
