package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/plantbridge/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "plantbridge-test",
		},
		QoS:   1,
		Topic: "home/+/BTtoMQTT/#",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func newUnconnectedClient() *Client {
	return &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}

	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "bridge"
	cfg.Auth.Password = "secret"
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if opts.ClientID != "plantbridge-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "bridge" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
	if !opts.CleanSession {
		t.Error("CleanSession should be enabled")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS minimum version not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "plantbridge-test")

	if !opts.WillEnabled {
		t.Fatal("LWT not enabled")
	}
	if opts.WillTopic != "plantbridge/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("LWT should be retained")
	}

	var status statusPayload
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("LWT payload not JSON: %v", err)
	}
	if status.Status != "offline" || status.Reason != "unexpected_disconnect" {
		t.Errorf("LWT payload = %+v", status)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("pb-1"), "online", ""},
		{"graceful offline", buildOfflinePayload("pb-1"), "offline", "graceful_shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var status statusPayload
			if err := json.Unmarshal([]byte(tt.payload), &status); err != nil {
				t.Fatalf("payload not JSON: %v", err)
			}
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status.Status, tt.wantStatus)
			}
			if status.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", status.Reason, tt.wantReason)
			}
			if status.ClientID != "pb-1" {
				t.Errorf("client_id = %q", status.ClientID)
			}
			if status.Timestamp == "" {
				t.Error("timestamp missing")
			}
		})
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	c := newUnconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler("home/+/BTtoMQTT/#", func(string, []byte) error {
		panic("boom")
	})

	// Must not propagate.
	wrapped(nil, fakeMessage{topic: "home/gw/BTtoMQTT/C47C8D6D672B", payload: []byte(`{}`)})

	if len(logger.entries) != 1 || !strings.HasPrefix(logger.entries[0], "error: MQTT handler panic recovered") {
		t.Errorf("entries = %v", logger.entries)
	}
}

func TestWrapHandler_LogsError(t *testing.T) {
	c := newUnconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var gotTopic string
	var gotPayload []byte
	wrapped := c.wrapHandler("home/gw/BTtoMQTT/+", func(topic string, payload []byte) error {
		gotTopic = topic
		gotPayload = payload
		return errors.New("handler failed")
	})

	wrapped(nil, fakeMessage{topic: "home/gw/BTtoMQTT/x", payload: []byte(`{"moi":35}`)})

	if gotTopic != "home/gw/BTtoMQTT/x" || string(gotPayload) != `{"moi":35}` {
		t.Errorf("handler got %q %q", gotTopic, gotPayload)
	}
	if len(logger.entries) != 1 || logger.entries[0] != "warn: MQTT handler returned error" {
		t.Errorf("entries = %v", logger.entries)
	}
}

func TestWrapHandler_NoLogger(t *testing.T) {
	c := newUnconnectedClient()
	wrapped := c.wrapHandler("#", func(string, []byte) error {
		panic("no logger set")
	})
	wrapped(nil, fakeMessage{topic: "t"})
}

func TestWrapHandler_IgnoresForeignTopic(t *testing.T) {
	c := newUnconnectedClient()
	called := false
	wrapped := c.wrapHandler("home/+/BTtoMQTT/#", func(string, []byte) error {
		called = true
		return nil
	})

	wrapped(nil, fakeMessage{topic: "home/gw/status", payload: []byte(`online`)})
	if called {
		t.Error("handler called for topic outside its filter")
	}

	wrapped(nil, fakeMessage{topic: "home/gw/BTtoMQTT/C47C8D6D672B", payload: []byte(`{}`)})
	if !called {
		t.Error("handler not called for matching topic")
	}
}

func TestUnconnectedClient(t *testing.T) {
	c := newUnconnectedClient()
	noop := func(string, []byte) error { return nil }

	if c.IsConnected() {
		t.Error("IsConnected() = true for unconnected client")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("home/+/BTtoMQTT/#", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() = %v, want ErrNotConnected", err)
	}
	if err := c.Publish("plantbridge/test", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() = %v, want ErrNotConnected", err)
	}
	if err := c.Unsubscribe("home/+/BTtoMQTT/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client = %v", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	c := newUnconnectedClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() = %v, want context.Canceled", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newUnconnectedClient()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, noop, ErrInvalidTopic},
		{"bad wildcard", "home/gw+/#", 1, noop, ErrInvalidTopic},
		{"invalid qos", "home/#", 3, noop, ErrInvalidQoS},
		{"nil handler", "home/#", 1, nil, ErrSubscribeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Subscribe(tt.topic, tt.qos, tt.handler); !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	c := newUnconnectedClient()

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: %v", err)
	}
	if err := c.Publish("t", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos: %v", err)
	}
	large := make([]byte, maxPayloadSize+1)
	if err := c.Publish("t", large, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("large payload: %v", err)
	}
}

// fakePaho records publishes and reports a live connection. Methods the
// tests never reach are left to the embedded nil interface.
type fakePaho struct {
	pahomqtt.Client

	mu           sync.Mutex
	published    []fakeMessage
	retained     []bool
	disconnected bool
}

func (f *fakePaho) IsConnected() bool { return true }

func (f *fakePaho) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, fakeMessage{topic: topic, payload: payload.([]byte)})
	f.retained = append(f.retained, retained)
	return doneToken{}
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
}

type doneToken struct {
	pahomqtt.Token
}

func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func newFakeConnectedClient() (*Client, *fakePaho) {
	fake := &fakePaho{}
	c := newUnconnectedClient()
	c.client = fake
	c.connected = true
	return c, fake
}

func statusOf(t *testing.T, payload []byte) statusPayload {
	t.Helper()
	var status statusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		t.Fatalf("status payload is not JSON: %v", err)
	}
	return status
}

func TestPublishOnlineStatus(t *testing.T) {
	c, fake := newFakeConnectedClient()

	if err := c.publishOnlineStatus(); err != nil {
		t.Fatalf("publishOnlineStatus() error = %v", err)
	}

	if len(fake.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.published))
	}
	msg := fake.published[0]
	if msg.topic != "plantbridge/system/status" {
		t.Errorf("topic = %q", msg.topic)
	}
	if !fake.retained[0] {
		t.Error("online status should be retained")
	}
	if got := statusOf(t, msg.payload).Status; got != statusOnline {
		t.Errorf("status = %q, want %q", got, statusOnline)
	}
}

func TestPublishOnlineStatus_NotConnected(t *testing.T) {
	c := newUnconnectedClient()
	if err := c.publishOnlineStatus(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("publishOnlineStatus() = %v, want ErrNotConnected", err)
	}
}

func TestClose_PublishesOfflineStatus(t *testing.T) {
	c, fake := newFakeConnectedClient()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if len(fake.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.published))
	}
	status := statusOf(t, fake.published[0].payload)
	if status.Status != statusOffline || status.Reason != reasonGraceful {
		t.Errorf("status = %+v, want graceful offline", status)
	}
	if !fake.disconnected {
		t.Error("Close() did not disconnect")
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

func TestSystemStatusTopic(t *testing.T) {
	if got := (Topics{}).SystemStatus(); got != "plantbridge/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		filter  string
		wantErr bool
	}{
		{"home/+/BTtoMQTT/#", false},
		{"home/gateway/BTtoMQTT/C47C8D6D672B", false},
		{"#", false},
		{"+/+", false},
		{"", true},
		{"home/#/x", true},
		{"home/gw#", true},
		{"home/+gw/x", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.filter), func(t *testing.T) {
			err := ValidateFilter(tt.filter)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilter(%q) = %v, wantErr %v", tt.filter, err, tt.wantErr)
			}
		})
	}
}

func TestMatchFilter(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"home/+/BTtoMQTT/#", "home/gw1/BTtoMQTT/C47C8D6D672B", true},
		{"home/+/BTtoMQTT/#", "home/gw1/BTtoMQTT", true},
		{"home/+/BTtoMQTT/#", "home/gw1/other/C47C8D6D672B", false},
		{"home/+/BTtoMQTT/+", "home/gw1/BTtoMQTT/a/b", false},
		{"a/b", "a/b", true},
		{"a/b", "a/b/c", false},
		{"#", "anything/at/all", true},
	}

	for _, tt := range tests {
		t.Run(tt.filter+" "+tt.topic, func(t *testing.T) {
			if got := MatchFilter(tt.filter, tt.topic); got != tt.want {
				t.Errorf("MatchFilter(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
			}
		})
	}
}
