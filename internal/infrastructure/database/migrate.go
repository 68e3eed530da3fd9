package database

import (
	"fmt"

	"gorm.io/gorm"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/pkg/logger"
)

// 迁移模式
const (
	MigrationModeAuto = "auto"
	MigrationModeDrop = "drop"
)

// schemaModels 按依赖顺序排列
func schemaModels() []interface{} {
	return []interface{}{
		&models.FormEntry{},
		&models.EntryFieldValue{},
		&models.EntryMeta{},
		&models.EntryNote{},
		&models.SyncSetting{},
		&models.SyncOperationLog{},
	}
}

// Migrate 根据迁移模式执行数据库迁移
func Migrate(db *gorm.DB, mode string) error {
	if mode == MigrationModeDrop {
		// 删除并重建表
		logger.Warning("警告: 在drop模式下运行，将删除并重建所有表")
		return dropAndRecreateTables(db)
	}

	// 默认AutoMigrate，只会添加新列和新表，不会删除或修改列
	logger.Info("在标准模式下运行，将只添加新列和新表")
	return AutoMigrate(db)
}

// AutoMigrate 自动迁移所有模型（只添加新列和新表）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(schemaModels()...); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	logger.Info("数据库迁移完成")
	return nil
}

// dropAndRecreateTables 删除并重建所有表
func dropAndRecreateTables(db *gorm.DB) error {
	tables := schemaModels()
	// 逆序删除，先删除子表
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			logger.Error("删除表失败: %v", err)
		}
	}

	// 重新创建表
	return AutoMigrate(db)
}
