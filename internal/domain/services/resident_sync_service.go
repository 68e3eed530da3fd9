package services

import (
	"context"
	"fmt"
	"strings"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/prima"
	"prima-sync-service/pkg/logger"
)

// MissingMappingError 推送卡号前尚未从控制器缓存姓名
type MissingMappingError struct {
	EntryID uint
}

func (e *MissingMappingError) Error() string {
	return "Missing Name mapping. Re-run Initial Setup Sync."
}

// InterfaceResidentSyncService 定义单条住户记录的同步状态机
type InterfaceResidentSyncService interface {
	PerformLookup(ctx context.Context, record *models.ResidentRecord) (models.SyncStatus, error)
	PerformCardPush(ctx context.Context, record *models.ResidentRecord, rfid string) (models.SyncStatus, error)
}

// ResidentSyncService 同步状态机。同步状态只由这里写入
type ResidentSyncService struct {
	Entries  InterfaceEntryService
	Client   prima.InterfaceControllerClient
	Activity logger.InterfaceActivityLogger
}

// NewResidentSyncService 创建同步状态机
func NewResidentSyncService(entries InterfaceEntryService, client prima.InterfaceControllerClient, activity logger.InterfaceActivityLogger) InterfaceResidentSyncService {
	if activity == nil {
		activity = logger.NopActivityLogger{}
	}
	return &ResidentSyncService{
		Entries:  entries,
		Client:   client,
		Activity: activity,
	}
}

// PerformLookup 按地址查询控制器并更新记录状态。
// 地址为空时不做任何操作；查询失败时状态置为 Error 并返回错误，批量处理可以继续
func (s *ResidentSyncService) PerformLookup(ctx context.Context, record *models.ResidentRecord) (models.SyncStatus, error) {
	address := strings.TrimSpace(record.Address)
	if address == "" {
		s.Activity.Log(fmt.Sprintf("Entry %d skipped: address is empty.", record.ID), nil, logger.LevelInfo)
		return record.SyncStatus, nil
	}

	matches, err := s.Client.LookupResidentByAddress(ctx, address)
	if err != nil {
		s.Activity.Log(fmt.Sprintf("Lookup failed for entry %d (%s).", record.ID, address), err.Error(), logger.LevelInfo)
		if storeErr := s.setStatus(record, models.SyncStatusError); storeErr != nil {
			return record.SyncStatus, storeErr
		}
		return record.SyncStatus, err
	}

	if len(matches) == 0 {
		s.Activity.Log(fmt.Sprintf("Entry %d: no controller user at %s.", record.ID, address), nil, logger.LevelInfo)
		if err := s.setStatus(record, models.SyncStatusNotFound); err != nil {
			return record.SyncStatus, err
		}
		return record.SyncStatus, nil
	}

	if len(matches) > 1 {
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ControllerUserID)
		}
		s.Activity.Log(
			fmt.Sprintf("Entry %d: %d controller users share address %s, using the first.", record.ID, len(matches), address),
			strings.Join(ids, ","), logger.LevelInfo,
		)
	}

	match := matches[0]
	err = s.Entries.SetMetas(record.ID, map[string]string{
		models.MetaControllerUserID:    match.ControllerUserID,
		models.MetaControllerFirstName: match.FirstName,
		models.MetaControllerLastName:  match.LastName,
		models.MetaExistingCards:       match.ExistingCards,
		models.MetaSyncStatus:          string(models.SyncStatusFound),
	})
	if err != nil {
		return record.SyncStatus, fmt.Errorf("缓存控制器用户失败: %w", err)
	}
	record.ControllerUserID = match.ControllerUserID
	record.FirstName = match.FirstName
	record.LastName = match.LastName
	record.ExistingCards = match.ExistingCards
	record.SyncStatus = models.SyncStatusFound

	s.Activity.Log(fmt.Sprintf("Entry %d matched controller user %s (%s %s).", record.ID, match.ControllerUserID, match.FirstName, match.LastName), nil, logger.LevelInfo)
	return record.SyncStatus, nil
}

// PerformCardPush 将卡号写入控制器。姓名必须来自之前的查询结果；失败时状态保持不变
func (s *ResidentSyncService) PerformCardPush(ctx context.Context, record *models.ResidentRecord, rfid string) (models.SyncStatus, error) {
	if !record.HasMapping() {
		return record.SyncStatus, &MissingMappingError{EntryID: record.ID}
	}

	if err := s.Client.UpsertResidentCard(ctx, record.FirstName, record.LastName, rfid); err != nil {
		s.Activity.Log(fmt.Sprintf("Card push failed for entry %d.", record.ID), err.Error(), logger.LevelInfo)
		return record.SyncStatus, err
	}

	if err := s.setStatus(record, models.SyncStatusSynced); err != nil {
		return record.SyncStatus, err
	}

	note := fmt.Sprintf("RFID %s assigned to %s %s", rfid, record.FirstName, record.LastName)
	if err := s.Entries.AddAuditNote(record.ID, note); err != nil {
		return record.SyncStatus, fmt.Errorf("添加审计备注失败: %w", err)
	}
	s.Activity.Log(fmt.Sprintf("Entry %d: %s.", record.ID, note), nil, logger.LevelInfo)
	return record.SyncStatus, nil
}

func (s *ResidentSyncService) setStatus(record *models.ResidentRecord, status models.SyncStatus) error {
	if err := s.Entries.SetMeta(record.ID, models.MetaSyncStatus, string(status)); err != nil {
		return fmt.Errorf("更新同步状态失败: %w", err)
	}
	record.SyncStatus = status
	return nil
}
