package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prima-sync-service/internal/infrastructure/config"
)

// fakeMessage 实现 mqtt.Message
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newTestMQTTService() *MQTTService {
	return NewMQTTService(&config.Config{
		MQTTBrokerURL: "tcp://127.0.0.1:1",
		MQTTClientID:  "prima_sync_test",
		MQTTQoS:       1,
	}).(*MQTTService)
}

func TestMQTTEntrySubmittedDispatch(t *testing.T) {
	svc := newTestMQTTService()
	require.Contains(t, svc.TopicHandlers, TopicEntrySubmitted)

	var received []*EntrySubmission
	svc.OnEntrySubmitted(func(submission *EntrySubmission) {
		received = append(received, submission)
	})

	handler := svc.TopicHandlers[TopicEntrySubmitted]
	handler(nil, &fakeMessage{
		topic:   TopicEntrySubmitted,
		payload: []byte(`{"form_id":7,"fields":{"3":"12 Oak St"},"timestamp":1700000000000}`),
	})
	handler(nil, &fakeMessage{topic: TopicEntrySubmitted, payload: []byte(`{"fields":{"3":"12 Oak St"}}`)})
	handler(nil, &fakeMessage{topic: TopicEntrySubmitted, payload: []byte(`not json`)})

	require.Len(t, received, 1)
	assert.Equal(t, uint(7), received[0].FormID)
	assert.Equal(t, "12 Oak St", received[0].Fields["3"])
}

func TestMQTTPublishWhileDisconnected(t *testing.T) {
	svc := newTestMQTTService()

	assert.False(t, svc.IsConnected())
	assert.ErrorIs(t, svc.PublishSyncEvent(&SyncEvent{EntryID: 1, Action: "lookup_one"}), ErrMQTTNotConnected)
	assert.ErrorIs(t, svc.PublishSystemMessage("startup", "info", "ready", nil), ErrMQTTNotConnected)

	// 未连接时断开不会出错
	svc.Disconnect()
	assert.False(t, svc.IsConnected())
}
