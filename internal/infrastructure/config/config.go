package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config 应用配置
type Config struct {
	EnvType string // LOCAL / SERVER

	// 数据库
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)

	// 服务端口
	ServerPort string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT配置
	MQTTBrokerURL  string // MQTT服务器地址，如 tcp://broker.example.com:1883
	MQTTClientID   string // MQTT客户端ID前缀
	MQTTUsername   string // MQTT用户名
	MQTTPassword   string // MQTT密码
	MQTTQoS        int    // 服务质量 (0, 1, 2)
	MQTTRetained   bool   // 是否保留消息
	MQTTSSLEnabled bool   // 是否启用SSL/TLS
	MQTTEnabled    bool   // 是否连接MQTT

	// Prima 控制器默认设置，数据库中保存的设置优先
	PrimaControllerURL  string
	PrimaAdminUser      string
	PrimaAdminPass      string
	PrimaFormID         uint
	PrimaAddressFieldID string
	PrimaRFIDFieldID    string
	PrimaLogMode        string // disabled / simple / debug
	PrimaLoginTimeout   time.Duration
	PrimaRequestTimeout time.Duration
	BatchPageSize       int
	CORSAllowOrigin     string

	// 应用日志
	LogDir     string
	LogLevel   string
	LogConsole bool
}

// LoadConfig 按 ENV_TYPE 读取环境变量，数据库和端口等配置支持 LOCAL_/SERVER_ 前缀
func LoadConfig() *Config {
	envType := strings.ToUpper(getEnv("ENV_TYPE", "LOCAL"))
	if envType != "LOCAL" && envType != "SERVER" {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		envType = "LOCAL"
	}
	fmt.Printf("Loading configuration for environment: %s\n", envType)

	env := envReader{prefix: envType + "_"}
	cfg := &Config{
		EnvType: envType,

		DBHost:          env.required("DB_HOST"),
		DBUser:          env.required("DB_USER"),
		DBPassword:      env.required("DB_PASSWORD"),
		DBName:          env.required("DB_NAME"),
		DBPort:          env.required("DB_PORT"),
		DBMigrationMode: env.str("DB_MIGRATION_MODE", "auto"),

		ServerPort: env.str("SERVER_PORT", "8080"),

		RedisHost:     env.str("REDIS_HOST", "localhost"),
		RedisPort:     env.str("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MQTTBrokerURL:  getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "prima_sync"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:        getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:   getEnvAsBool("MQTT_RETAINED", false),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),
		MQTTEnabled:    getEnvAsBool("MQTT_ENABLED", true),

		PrimaControllerURL:  getEnv("PRIMA_CONTROLLER_URL", ""),
		PrimaAdminUser:      getEnv("PRIMA_ADMIN_USER", ""),
		PrimaAdminPass:      getEnv("PRIMA_ADMIN_PASS", ""),
		PrimaFormID:         uint(getEnvAsInt("PRIMA_FORM_ID", 0)),
		PrimaAddressFieldID: getEnv("PRIMA_ADDRESS_FIELD_ID", ""),
		PrimaRFIDFieldID:    getEnv("PRIMA_RFID_FIELD_ID", ""),
		PrimaLogMode:        getEnv("PRIMA_LOG_MODE", "simple"),
		PrimaLoginTimeout:   getEnvAsDuration("PRIMA_LOGIN_TIMEOUT", 20*time.Second),
		PrimaRequestTimeout: getEnvAsDuration("PRIMA_REQUEST_TIMEOUT", 30*time.Second),
		BatchPageSize:       getEnvAsInt("BATCH_PAGE_SIZE", 10),
		CORSAllowOrigin:     env.str("CORS_ALLOW_ORIGIN", "http://localhost:8080"),

		LogDir:     getEnv("LOG_DIR", "logs"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogConsole: getEnvAsBool("LOG_CONSOLE", envType == "LOCAL"),
	}
	cfg.normalize()
	return cfg
}

// normalize 超出范围的值回退到默认值
func (c *Config) normalize() {
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		c.MQTTQoS = 1
	}
	if c.BatchPageSize <= 0 {
		c.BatchPageSize = 10
	}
	c.PrimaLogMode = strings.ToLower(strings.TrimSpace(c.PrimaLogMode))
	switch c.PrimaLogMode {
	case "disabled", "simple", "debug":
	default:
		c.PrimaLogMode = "simple"
	}
	if c.DBMigrationMode != "drop" {
		c.DBMigrationMode = "auto"
	}
}

// GetConfig 返回全局配置单例
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN 返回 MySQL 连接串
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// GetRedisAddr 返回 Redis 地址
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// envReader 先读带环境前缀的变量，再读不带前缀的变量
type envReader struct {
	prefix string
}

func (e envReader) str(key, defaultValue string) string {
	return getEnv(e.prefix+key, getEnv(key, defaultValue))
}

// required 缺少数据库配置时无法启动
func (e envReader) required(key string) string {
	if value := e.str(key, ""); value != "" {
		return value
	}
	panic(fmt.Sprintf("缺少环境变量 %s%s", e.prefix, key))
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return defaultValue
}

// 时长支持 "20s" 格式，也接受纯数字秒数
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
