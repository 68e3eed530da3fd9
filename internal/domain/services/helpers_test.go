package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
	"prima-sync-service/internal/infrastructure/database"
	"prima-sync-service/internal/infrastructure/prima"
	"prima-sync-service/pkg/logger"
)

const (
	testFormID       = uint(7)
	testAddressField = "3"
	testRFIDField    = "9"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	pool, err := database.NewConnectionPoolWithDialector(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		gormlogger.Silent,
	)
	require.NoError(t, err)
	require.NoError(t, pool.UpdatePoolConfig(1, 1, time.Hour, time.Hour))
	require.NoError(t, database.AutoMigrate(pool.GetDB()))
	t.Cleanup(func() { _ = pool.Close() })
	return pool.GetDB()
}

func newTestConfig() *config.Config {
	return &config.Config{
		PrimaControllerURL:  "http://controller.local",
		PrimaAdminUser:      "admin",
		PrimaAdminPass:      "secret",
		PrimaFormID:         testFormID,
		PrimaAddressFieldID: testAddressField,
		PrimaRFIDFieldID:    testRFIDField,
		PrimaLogMode:        logger.ModeDebug,
		PrimaLoginTimeout:   time.Second,
		PrimaRequestTimeout: time.Second,
		BatchPageSize:       10,
	}
}

func createEntry(t *testing.T, entries InterfaceEntryService, formID uint, address string) *models.FormEntry {
	t.Helper()
	fields := map[string]string{"1": "Resident"}
	if address != "" {
		fields[testAddressField] = address
	}
	entry, err := entries.CreateEntry(formID, fields)
	require.NoError(t, err)
	return entry
}

func testMapping() models.FieldMapping {
	return models.FieldMapping{FormID: testFormID, AddressFieldID: testAddressField, RFIDFieldID: testRFIDField}
}

// fakeControllerClient 可编程的控制器客户端
type fakeControllerClient struct {
	mu sync.Mutex

	residents  map[string][]prima.ResidentMatch
	lookupErr  error
	upsertErr  error
	connectErr error

	lookups  []string
	upserts  []string
	connects int
}

func newFakeControllerClient() *fakeControllerClient {
	return &fakeControllerClient{residents: make(map[string][]prima.ResidentMatch)}
}

func (f *fakeControllerClient) addResident(m prima.ResidentMatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(m.Address)
	f.residents[key] = append(f.residents[key], m)
}

func (f *fakeControllerClient) TestConnection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeControllerClient) LookupResidentByAddress(_ context.Context, address string) ([]prima.ResidentMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, address)
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return append([]prima.ResidentMatch(nil), f.residents[strings.ToLower(address)]...), nil
}

func (f *fakeControllerClient) UpsertResidentCard(_ context.Context, firstName, lastName, card string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, firstName+" "+lastName+":"+card)
	return f.upsertErr
}

func (f *fakeControllerClient) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

// recordingActivity 记录活动日志内容
type recordingActivity struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingActivity) Log(message string, _ interface{}, _ logger.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingActivity) contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// recordingMQTT 记录发布的事件和系统消息
type recordingMQTT struct {
	mu       sync.Mutex
	events   []SyncEvent
	messages []SystemMessage
}

func (r *recordingMQTT) Connect() error { return nil }
func (r *recordingMQTT) Disconnect() {}
func (r *recordingMQTT) IsConnected() bool { return true }
func (r *recordingMQTT) SubscribeToTopics() error { return nil }
func (r *recordingMQTT) OnEntrySubmitted(EntrySubmittedHandler) {}

func (r *recordingMQTT) PublishSyncEvent(event *SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingMQTT) PublishSystemMessage(messageType, level, message string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, SystemMessage{Type: messageType, Level: level, Message: message, Data: data})
	return nil
}
