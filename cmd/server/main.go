// @title           Prima Sync Service API
// @version         1.0
// @description     Resident sync between form entries and a Prima access-control panel

// @contact.name   API Support

// @BasePath  /api
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"

	"prima-sync-service/internal/app/routes"
	"prima-sync-service/internal/domain/services/container"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/internal/infrastructure/database"
	"prima-sync-service/pkg/logger"
)

func main() {
	// 设置最大处理器数量，提高并发性能
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 加载.env文件，失败时使用已有的环境变量
	envErr := godotenv.Load()

	// 获取配置
	cfg := config.GetConfig()

	// 初始化日志配置
	if err := logger.SetupLogger(logger.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Console: cfg.LogConsole,
	}); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warning("无法加载.env文件: %v", envErr)
	} else {
		logger.Info("成功加载.env文件")
	}

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		logger.Error("无法创建数据库连接池: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool.GetDB(), cfg.DBMigrationMode); err != nil {
		logger.Error("数据库迁移失败: %v", err)
		os.Exit(1)
	}

	// 初始化服务容器和路由
	serviceContainer := container.NewServiceContainer(pool, cfg, nil)
	defer serviceContainer.Close()

	r := routes.SetupRouter(serviceContainer, cfg)

	// 打印系统信息
	printSystemInfo(pool, cfg)

	// 监听所有接口(0.0.0.0)而不是只监听localhost
	port := cfg.ServerPort
	logger.Info("服务器启动在: http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		logger.Error("启动服务器失败: %v", err)
		serviceContainer.Close()
		os.Exit(1)
	}
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool, cfg *config.Config) {
	// 打印数据库连接池信息
	if stats, err := pool.Stats(); err == nil {
		logger.Info("数据库连接池状态: %+v", stats)
	}

	if cfg.PrimaControllerURL == "" {
		logger.Warning("PRIMA_CONTROLLER_URL 未配置，需要在设置中填写控制器地址")
	} else {
		logger.Info("Prima 控制器: %s", cfg.PrimaControllerURL)
	}
	logger.Info("MQTT: %v, 活动日志目录: %s", cfg.MQTTEnabled, cfg.LogDir)

	// 打印系统资源信息
	logger.Info("系统CPU核心数: %d", runtime.NumCPU())
	logger.Info("当前Go协程数: %d", runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Info("系统内存使用: Alloc=%v MiB, TotalAlloc=%v MiB, Sys=%v MiB",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024)
}
