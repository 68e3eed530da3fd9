package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/pkg/logger"
)

// 主题常量
const (
	// 同步状态变化通知主题
	TopicSyncStatus = "prima_sync/status"

	// 表单提交主题，表单系统在新记录创建后发布
	TopicEntrySubmitted = "prima_sync/entries/submitted"

	// 系统消息主题
	TopicSystemMessage = "prima_sync/system"
)

// ErrMQTTNotConnected MQTT未连接
var ErrMQTTNotConnected = errors.New("MQTT未连接")

// 消息结构体定义
type (
	// SyncEvent 同步状态变化事件
	SyncEvent struct {
		OperationID string            `json:"operation_id"`
		Action      string            `json:"action"`
		EntryID     uint              `json:"entry_id"`
		Status      models.SyncStatus `json:"status"`
		Success     bool              `json:"success"`
		Message     string            `json:"message"`
		Timestamp   int64             `json:"timestamp"`
	}

	// EntrySubmission 表单提交消息
	EntrySubmission struct {
		FormID    uint              `json:"form_id"`
		Fields    map[string]string `json:"fields"`
		Timestamp int64             `json:"timestamp"`
	}

	// SystemMessage 系统消息
	SystemMessage struct {
		Type      string      `json:"type"`
		Level     string      `json:"level"` // info/warning/error
		Message   string      `json:"message"`
		Data      interface{} `json:"data,omitempty"`
		Timestamp int64       `json:"timestamp"`
	}
)

// EntrySubmittedHandler 处理表单提交消息
type EntrySubmittedHandler func(submission *EntrySubmission)

// InterfaceMQTTService 定义MQTT服务接口
type InterfaceMQTTService interface {
	Connect() error
	Disconnect()
	IsConnected() bool
	SubscribeToTopics() error
	OnEntrySubmitted(handler EntrySubmittedHandler)
	PublishSyncEvent(event *SyncEvent) error
	PublishSystemMessage(messageType, level, message string, data interface{}) error
}

// MQTTService 发布同步事件并接收表单提交
type MQTTService struct {
	Config         *config.Config
	Client         mqtt.Client
	TopicHandlers  map[string]mqtt.MessageHandler
	isConnected    bool
	connectedMutex sync.RWMutex // 保护isConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布
	handlerMutex   sync.RWMutex
	entryHandler   EntrySubmittedHandler
}

// NewMQTTService 创建一个新的MQTT服务
func NewMQTTService(cfg *config.Config) InterfaceMQTTService {
	service := &MQTTService{
		Config:        cfg,
		TopicHandlers: make(map[string]mqtt.MessageHandler),
	}

	// 设置MQTT客户端
	service.setupMQTTClient()

	// 设置主题处理程序
	service.setupTopicHandlers()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", s.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)
	// 表单提交的处理会访问控制器，不能阻塞消息循环
	opts.SetOrderMatters(false)

	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		logger.Debug("[MQTT] 收到未处理的消息: topic=%s", msg.Topic())
	})

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		logger.Info("[MQTT] 使用TLS连接")
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warning("[MQTT] 连接丢失: %v", err)
		s.setConnected(false)
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
		s.setConnected(true)

		// 订阅主题
		if err := s.SubscribeToTopics(); err != nil {
			logger.Error("[MQTT] 订阅主题失败: %v", err)
		}
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Info("[MQTT] 正在尝试重连...")
	})

	// 创建客户端
	s.Client = mqtt.NewClient(opts)
}

// setupTopicHandlers 设置主题处理程序
func (s *MQTTService) setupTopicHandlers() {
	s.TopicHandlers = map[string]mqtt.MessageHandler{
		TopicEntrySubmitted: s.handleEntrySubmitted,
	}
}

// Connect 连接到MQTT服务器，带有重试机制
func (s *MQTTService) Connect() error {
	logger.Info("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	// 加锁，确保同一时间只有一个连接尝试
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	if s.IsConnected() {
		return nil
	}

	// 最大重试次数和指数退避策略
	maxRetries := 3
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.setConnected(true)
			return nil
		}

		err = token.Error()
		if err == nil {
			err = errors.New("连接超时")
		}
		if i == maxRetries-1 {
			break
		}
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s
		logger.Warning("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %w", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *MQTTService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
	s.setConnected(false)
}

// IsConnected 是否已连接
func (s *MQTTService) IsConnected() bool {
	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.isConnected && s.Client != nil && s.Client.IsConnected()
}

func (s *MQTTService) setConnected(connected bool) {
	s.connectedMutex.Lock()
	s.isConnected = connected
	s.connectedMutex.Unlock()
}

// SubscribeToTopics 订阅相关主题
func (s *MQTTService) SubscribeToTopics() error {
	// 使用QoS 1确保消息至少被传递一次
	qos := byte(1)

	for topic, handler := range s.TopicHandlers {
		if token := s.Client.Subscribe(topic, qos, handler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("订阅主题失败 [%s]: %v", topic, token.Error())
		}
		logger.Info("[MQTT] 已订阅主题: %s", topic)
	}
	return nil
}

// OnEntrySubmitted 注册表单提交处理函数，只保留一个
func (s *MQTTService) OnEntrySubmitted(handler EntrySubmittedHandler) {
	s.handlerMutex.Lock()
	defer s.handlerMutex.Unlock()
	s.entryHandler = handler
}

// PublishSyncEvent 发布同步状态变化
func (s *MQTTService) PublishSyncEvent(event *SyncEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	return s.publishMessage(TopicSyncStatus, event)
}

// PublishSystemMessage 发布系统消息
func (s *MQTTService) PublishSystemMessage(messageType, level, message string, data interface{}) error {
	return s.publishMessage(TopicSystemMessage, SystemMessage{
		Type:      messageType,
		Level:     level,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// publishMessage 发布消息
func (s *MQTTService) publishMessage(topic string, payload interface{}) error {
	if !s.IsConnected() {
		return ErrMQTTNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	token := s.Client.Publish(topic, byte(s.Config.MQTTQoS), s.Config.MQTTRetained, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("发布消息超时 [%s]", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布消息失败 [%s]: %w", topic, err)
	}
	return nil
}

// handleEntrySubmitted 处理表单提交消息
func (s *MQTTService) handleEntrySubmitted(_ mqtt.Client, msg mqtt.Message) {
	var submission EntrySubmission
	if err := json.Unmarshal(msg.Payload(), &submission); err != nil {
		logger.Warning("[MQTT] 表单提交消息格式错误: %v", err)
		return
	}
	if submission.FormID == 0 {
		logger.Warning("[MQTT] 表单提交消息缺少 form_id")
		return
	}

	s.handlerMutex.RLock()
	handler := s.entryHandler
	s.handlerMutex.RUnlock()

	if handler == nil {
		logger.Warning("[MQTT] 未注册表单提交处理函数，忽略消息")
		return
	}
	handler(&submission)
}
