package notify

import (
	"context"
	"time"

	"github.com/nerrad567/relaycycle/internal/infrastructure/mqtt"
	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// Websocket channels.
const (
	ChannelRelayUpdate = "relay_update"
	ChannelCycleUpdate = "cycle_update"
)

// Broadcaster pushes an event to websocket subscribers.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink broadcasts changes to websocket clients.
type HubSink struct {
	Hub Broadcaster
}

func (HubSink) Name() string { return "websocket" }

func (s HubSink) RelayChanged(_ context.Context, r relay.Relay) error {
	s.Hub.Broadcast(ChannelRelayUpdate, r)
	return nil
}

func (s HubSink) CycleChanged(_ context.Context, e scheduler.CycleEvent) error {
	s.Hub.Broadcast(ChannelCycleUpdate, e)
	return nil
}

// Publisher publishes a retained JSON message.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// MQTTSink publishes retained relay state and cycle events.
type MQTTSink struct {
	Publisher Publisher
	Topics    mqtt.Topics
}

func (MQTTSink) Name() string { return "mqtt" }

func (s MQTTSink) RelayChanged(_ context.Context, r relay.Relay) error {
	return s.Publisher.PublishJSON(s.Topics.RelayState(string(r.ID)), r)
}

func (s MQTTSink) CycleChanged(_ context.Context, e scheduler.CycleEvent) error {
	return s.Publisher.PublishJSON(s.Topics.CycleEvent(string(e.CycleID)), e)
}

// TelemetryWriter records points in a time-series store.
type TelemetryWriter interface {
	WriteRelayState(relayID, name string, on bool, at time.Time)
	WriteCycleEvent(cycleID, event string, at time.Time)
}

// InfluxSink writes relay states and cycle events as telemetry points.
type InfluxSink struct {
	Writer TelemetryWriter
	Now    func() time.Time
}

func (InfluxSink) Name() string { return "influxdb" }

func (s InfluxSink) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s InfluxSink) RelayChanged(_ context.Context, r relay.Relay) error {
	s.Writer.WriteRelayState(string(r.ID), r.Name, r.Status, s.now())
	return nil
}

func (s InfluxSink) CycleChanged(_ context.Context, e scheduler.CycleEvent) error {
	s.Writer.WriteCycleEvent(string(e.CycleID), e.Event, e.At)
	return nil
}

// HistorySink appends every relay change to the history table.
type HistorySink struct {
	Repo relay.HistoryRepository
	Now  func() time.Time
}

func (HistorySink) Name() string { return "history" }

func (s HistorySink) RelayChanged(ctx context.Context, r relay.Relay) error {
	at := time.Now()
	if s.Now != nil {
		at = s.Now()
	}
	return s.Repo.Record(ctx, r.ID, r.Status, at)
}
