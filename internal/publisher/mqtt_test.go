package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/core"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

var _ mqtt.Token = (*doneToken)(nil)

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	messages     []message
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return &doneToken{err: c.err}
}

func (c *fakeClient) IsConnected() bool { return !c.disconnected }
func (c *fakeClient) Disconnect(uint)   { c.disconnected = true }
func (c *fakeClient) byTopic() map[string][]byte {
	out := make(map[string][]byte)
	for _, m := range c.messages {
		out[m.topic] = m.payload
	}
	return out
}

func sampleRecords() []core.Record {
	return []core.Record{
		{ID: "a", Period: "May 2025", Consumption: 1000, Cost: 120},
		{ID: "b", Period: "June 2025", Consumption: 900, Cost: 108, SavingsPercentage: 10},
	}
}

func TestBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://localhost:1883", brokerURL("localhost:1883"))
	assert.Equal(t, "ssl://broker:8883", brokerURL("ssl://broker:8883"))
}

func TestTopics(t *testing.T) {
	p := newPublisher(&fakeClient{}, "/home/energy/")
	assert.Equal(t, "home/energy/records/x", p.RecordTopic("x"))
	assert.Equal(t, "home/energy/summary", p.SummaryTopic())

	p = newPublisher(&fakeClient{}, "")
	assert.Equal(t, "energydash/summary", p.SummaryTopic())
}

func TestMirrorPublishesRetainedRecordsAndSummary(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "energy")

	err := p.Mirror(context.Background(), core.CommitInfo{ID: 4}, sampleRecords())
	require.NoError(t, err)

	require.Len(t, c.messages, 3)
	for _, m := range c.messages {
		assert.True(t, m.retained, m.topic)
	}

	topics := c.byTopic()
	var rec core.Record
	require.NoError(t, json.Unmarshal(topics["energy/records/b"], &rec))
	assert.Equal(t, "June 2025", rec.Period)

	var summary SummaryPayload
	require.NoError(t, json.Unmarshal(topics["energy/summary"], &summary))
	assert.Equal(t, int64(4), summary.CommitID)
	assert.Equal(t, 2, summary.Records)
	assert.InDelta(t, 1900, summary.TotalConsumption, 0.001)
}

func TestMirrorClearsRemovedRecords(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "energy")

	require.NoError(t, p.Mirror(context.Background(), core.CommitInfo{ID: 1}, sampleRecords()))
	c.messages = nil

	require.NoError(t, p.Mirror(context.Background(), core.CommitInfo{ID: 2}, sampleRecords()[:1]))

	topics := c.byTopic()
	cleared, ok := topics["energy/records/b"]
	require.True(t, ok, "removed record should be cleared")
	assert.Empty(t, cleared)
}

func TestMirrorPublishError(t *testing.T) {
	c := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(c, "energy")

	err := p.Mirror(context.Background(), core.CommitInfo{ID: 1}, sampleRecords())
	assert.ErrorContains(t, err, "not connected")
}

func TestMirrorCancelledContext(t *testing.T) {
	p := newPublisher(&fakeClient{}, "energy")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Mirror(ctx, core.CommitInfo{ID: 1}, sampleRecords())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "")
	p.Close()
	assert.True(t, c.disconnected)
}
