package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository/memory"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/messaging"
)

func newTestService(opts ...Option) *Service {
	return NewService(memory.NewAuditRepository(), idgen.NewSequence(), logger.Nop(), nil, opts...)
}

func TestLogInteraction_RecordsSnapshot(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	payload := map[string]interface{}{"symptoms": []string{"fever"}}
	res := svc.LogInteraction(ctx, model.AgentConsultation, "U001", payload, nil, true)
	assert.True(t, res.Logged)
	assert.Equal(t, "LOG-1", res.LogID)

	payload["symptoms"] = []string{"changed"}
	payload["extra"] = true

	logs, err := svc.GetLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"symptoms":["fever"]}`, string(logs[0].Payload))
	assert.Equal(t, "null", string(logs[0].Response))
	assert.Equal(t, model.InteractionSuccess, logs[0].Status)
	assert.Equal(t, model.AgentConsultation, logs[0].AgentName)
	assert.Equal(t, "U001", logs[0].UserID)
}

func TestLogInteraction_FailureStatus(t *testing.T) {
	svc := newTestService()
	res := svc.LogInteraction(context.Background(), model.AgentConsultation, "U001", map[string]string{"error": "boom"}, nil, false)
	assert.True(t, res.Logged)

	logs, _ := svc.GetLogs(context.Background())
	assert.Equal(t, model.InteractionFailure, logs[0].Status)
}

func TestLogInteraction_UnserializablePayload(t *testing.T) {
	svc := newTestService()

	res := svc.LogInteraction(context.Background(), model.AgentConsultation, "U001", make(chan int), nil, true)
	assert.Equal(t, model.LogResult{Logged: false, LogID: model.LogFailedID}, res)

	logs, _ := svc.GetLogs(context.Background())
	assert.Empty(t, logs)
}

type panickingValue struct{}

func (panickingValue) MarshalJSON() ([]byte, error) { panic("bad marshaller") }

func TestLogInteraction_NeverPanics(t *testing.T) {
	svc := newTestService()
	var res model.LogResult
	assert.NotPanics(t, func() {
		res = svc.LogInteraction(context.Background(), "x", "U001", panickingValue{}, nil, true)
	})
	assert.False(t, res.Logged)
}

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, entry *model.LogEntry) error {
	return errors.New("disk full")
}
func (failingRepo) List(ctx context.Context) ([]model.LogEntry, error) { return nil, nil }
func (failingRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestLogInteraction_StoreFailure(t *testing.T) {
	svc := NewService(failingRepo{}, idgen.NewSequence(), logger.Nop(), nil)
	res := svc.LogInteraction(context.Background(), "x", "U001", 1, 2, true)
	assert.Equal(t, model.LogFailedID, res.LogID)
}

func TestGetLogs_ReturnsCopy(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	svc.LogInteraction(ctx, "a", "U001", map[string]int{"n": 1}, nil, true)

	logs, _ := svc.GetLogs(ctx)
	logs[0].AgentName = "tampered"
	logs[0].Payload[1] = 'X'

	again, _ := svc.GetLogs(ctx)
	assert.Equal(t, "a", again[0].AgentName)
	assert.JSONEq(t, `{"n":1}`, string(again[0].Payload))
}

func TestLogInteraction_PublishesEntry(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := broker.Subscribe(ctx, messaging.ChannelAgentInteractions)
	require.NoError(t, err)

	svc := newTestService(WithPublisher(broker))
	res := svc.LogInteraction(ctx, model.AgentDoctorSearch, "U001", map[string]string{"specialist": "Cardiologist"}, nil, true)
	require.True(t, res.Logged)

	select {
	case msg := <-ch:
		var entry model.LogEntry
		require.NoError(t, json.Unmarshal(msg, &entry))
		assert.Equal(t, res.LogID, entry.ID)
		assert.Equal(t, model.AgentDoctorSearch, entry.AgentName)
	case <-time.After(time.Second):
		t.Fatal("entry not published")
	}
}

func TestLogInteraction_PublishFailureIsAbsorbed(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	require.NoError(t, broker.Close())

	svc := newTestService(WithPublisher(broker))
	res := svc.LogInteraction(context.Background(), "a", "U001", nil, nil, true)
	assert.True(t, res.Logged)
}
