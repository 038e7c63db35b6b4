package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/mineplan/core/history"
	coremqtt "github.com/kilianp07/mineplan/core/mqtt"
	"github.com/kilianp07/mineplan/core/schedule"
)

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func testRecord() *history.Record {
	rec := history.NewRecord(&schedule.Result{
		Grid:      map[string][]string{"S1": {"DR", ""}},
		GridHours: 2,
	})
	return &rec
}

func TestPublishScheduleQoSAndRetain(t *testing.T) {
	mc := &mockClient{connected: true}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "mine/schedule", QoS: 1, Retain: true}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	rec := testRecord()
	if err := cli.PublishSchedule(context.Background(), rec); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mc.published))
	}
	got := mc.published[0]
	if got.topic != "mine/schedule" || got.qos != 1 || !got.retained {
		t.Fatalf("unexpected publish %+v", got)
	}
	var decoded history.Record
	if err := json.Unmarshal(got.payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.ID != rec.ID || decoded.Result.GridHours != 2 {
		t.Fatalf("payload mismatch: %+v", decoded)
	}
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{connected: true}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "s", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if !mc.opts.WillEnabled {
		t.Fatalf("will not enabled")
	}
	if mc.opts.WillTopic != "lwt" || string(mc.opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
	cli.Disconnect()
	if !mc.disconnected {
		t.Fatalf("disconnect not forwarded")
	}
	if len(mc.published) != 0 {
		t.Fatalf("unexpected publish on disconnect")
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{connected: true, publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "s", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.PublishSchedule(context.Background(), testRecord()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries")
	}
}

func TestRetryExhausted(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{connected: true, publishErrs: []error{fail, fail, fail}}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "s", MaxRetries: 2, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.PublishSchedule(context.Background(), testRecord()); !errors.Is(err, fail) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(mc.published) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(mc.published))
	}
}

func TestPublishCanceledContext(t *testing.T) {
	mc := &mockClient{connected: true, publishErrs: []error{errors.New("net fail")}}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "s", MaxRetries: 3, BackoffMS: 1000}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := cli.PublishSchedule(ctx, testRecord()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestPublishNotConnected(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "s"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.PublishSchedule(context.Background(), testRecord()); !errors.Is(err, coremqtt.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestNewPahoClientRequiresTopic(t *testing.T) {
	if _, err := NewPahoClient(Config{Broker: "tcp://localhost:1883"}); !errors.Is(err, coremqtt.ErrNoTopic) {
		t.Fatalf("expected ErrNoTopic, got %v", err)
	}
}

func TestConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	withMockClient(t, mc)
	if _, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ScheduleTopic: "s"}); err == nil {
		t.Fatal("expected connect error")
	}
}

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts         *paho.ClientOptions
	connected    bool
	disconnected bool
	connectErr   error
	published    []publishCall
	publishErrs  []error
}

func (m *mockClient) IsConnected() bool { return m.connected }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, publishCall{topic: topic, qos: qos, retained: retained, payload: b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
