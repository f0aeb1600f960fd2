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

	"github.com/nerrad567/relaycycle/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: fmt.Sprintf("relaycycle-test-%d", time.Now().UnixNano()),
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "relaycycle-test",
	}
}

// connectOrSkip connects to the local broker, skipping the test when none
// is running.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}
	client, err := Connect(testConfig())
	if err != nil {
		t.Skipf("no MQTT broker available: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("relaycycle")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"RelayState", topics.RelayState("pump"), "relaycycle/relay/pump/state"},
		{"CycleEvent", topics.CycleEvent("irrigation"), "relaycycle/cycle/irrigation/event"},
		{"RelayCommand", topics.RelayCommand("pump"), "relaycycle/command/relay/pump"},
		{"CycleCommand", topics.CycleCommand("irrigation"), "relaycycle/command/cycle/irrigation"},
		{"SystemStatus", topics.SystemStatus(), "relaycycle/system/status"},
		{"AllRelayCommands", topics.AllRelayCommands(), "relaycycle/command/relay/+"},
		{"AllCycleCommands", topics.AllCycleCommands(), "relaycycle/command/cycle/+"},
		{"AllRelayStates", topics.AllRelayStates(), "relaycycle/relay/+/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNewTopics_Prefix(t *testing.T) {
	if got := NewTopics("").SystemStatus(); got != "relaycycle/system/status" {
		t.Errorf("empty prefix: got %q", got)
	}
	if got := NewTopics("/site-a/greenhouse/").SystemStatus(); got != "site-a/greenhouse/system/status" {
		t.Errorf("trimmed prefix: got %q", got)
	}
	if got := (Topics{}).RelayState("1"); got != "relaycycle/relay/1/state" {
		t.Errorf("zero Topics: got %q", got)
	}
}

func TestParseCommandTopic(t *testing.T) {
	topics := NewTopics("relaycycle")

	tests := []struct {
		topic    string
		wantKind string
		wantID   string
		wantOK   bool
	}{
		{"relaycycle/command/relay/pump", "relay", "pump", true},
		{"relaycycle/command/cycle/42", "cycle", "42", true},
		{"relaycycle/command/scene/x", "", "", false},
		{"relaycycle/command/relay/", "", "", false},
		{"relaycycle/command/relay/a/b", "", "", false},
		{"relaycycle/relay/pump/state", "", "", false},
		{"other/command/relay/pump", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			kind, id, ok := topics.ParseCommandTopic(tt.topic)
			if kind != tt.wantKind || id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ParseCommandTopic(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, kind, id, ok, tt.wantKind, tt.wantID, tt.wantOK)
			}
		})
	}
}

// =============================================================================
// Option and Payload Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "relay"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.Username != "relay" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 5s", opts.MaxReconnectInterval)
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, NewTopics("relaycycle"), "rc-1")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("expected retained will message")
	}
	if opts.WillTopic != "relaycycle/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var payload statusPayload
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if payload.Status != "offline" || payload.Reason != "unexpected_disconnect" || payload.ClientID != "rc-1" {
		t.Errorf("unexpected will payload: %+v", payload)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestDisconnectedClient(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if c.IsConnected() {
		t.Error("IsConnected() = true for client without connection")
	}
	if err := c.Publish("a/b", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("a/b", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.Unsubscribe("a/b"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.SubscriptionCount() != 0 || c.HasSubscription("a/b") {
		t.Error("expected no tracked subscriptions")
	}
}

func TestInputValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := c.Publish("", nil, 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("a", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("a", make([]byte, maxPayloadSize+1), 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish(large) error = %v, want ErrPublishFailed", err)
	}
	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("a", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.PublishJSON("a", make(chan int)); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON(unencodable) error = %v, want ErrPublishFailed", err)
	}
}

func TestDispatch_RecoversPanicAndLogsErrors(t *testing.T) {
	logger := &mockLogger{}
	c := &Client{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "t", nil)
	c.dispatch(func(string, []byte) error { return nil }, "t", nil)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors = %v, want one panic log", logger.errors)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error log", logger.warns)
	}
}

// =============================================================================
// Broker Tests (skipped without a local broker)
// =============================================================================

func TestBroker_PublishSubscribeRoundtrip(t *testing.T) {
	client := connectOrSkip(t)
	topics := client.Topics()

	received := make(chan []byte, 1)
	err := client.Subscribe(topics.AllRelayCommands(), 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.AllRelayCommands()) {
		t.Error("subscription not tracked")
	}

	if err := client.Publish(topics.RelayCommand("pump"), []byte(`{"on":true}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != `{"on":true}` {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	if err := client.Unsubscribe(topics.AllRelayCommands()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestBroker_HealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() with cancelled context expected error")
	}
}
