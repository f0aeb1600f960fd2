package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/infrastructure/mqtt"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// ErrInvalidCommand is returned for malformed topics or payloads.
var ErrInvalidCommand = errors.New("commands: invalid command")

// Controller executes commands.
type Controller interface {
	SetRelay(id relay.ID, on bool) (relay.Relay, error)
	ToggleRelay(id relay.ID) (relay.Relay, error)
	Control(id cycle.ID, c cycle.Control) error
}

// Subscriber registers MQTT handlers.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger defines the logging interface used by the Handler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// RelayCommand is the payload of a relay command.
type RelayCommand struct {
	On     *bool `json:"on,omitempty"`
	Toggle bool  `json:"toggle,omitempty"`
}

// CycleCommand is the payload of a cycle command.
type CycleCommand struct {
	Control string `json:"control"`
}

// Handler routes command messages to a Controller.
type Handler struct {
	ctrl   Controller
	topics mqtt.Topics
	logger Logger
}

// NewHandler creates a Handler for topics under the given tree.
func NewHandler(ctrl Controller, topics mqtt.Topics, logger Logger) *Handler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Handler{ctrl: ctrl, topics: topics, logger: logger}
}

// Subscribe registers the handler for relay and cycle command topics.
func (h *Handler) Subscribe(sub Subscriber, qos byte) error {
	for _, topic := range []string{h.topics.AllRelayCommands(), h.topics.AllCycleCommands()} {
		if err := sub.Subscribe(topic, qos, h.Handle); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		h.logger.Info("subscribed to commands", "topic", topic)
	}
	return nil
}

// Handle processes one command message.
func (h *Handler) Handle(topic string, payload []byte) error {
	kind, id, ok := h.topics.ParseCommandTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidCommand, topic)
	}

	var err error
	switch kind {
	case "relay":
		err = h.handleRelay(relay.ID(id), payload)
	case "cycle":
		err = h.handleCycle(cycle.ID(id), payload)
	}
	if err != nil {
		h.logger.Warn("command failed", "topic", topic, "error", err)
		return err
	}
	return nil
}

func (h *Handler) handleRelay(id relay.ID, payload []byte) error {
	var cmd RelayCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	var (
		r   relay.Relay
		err error
	)
	switch {
	case cmd.Toggle:
		r, err = h.ctrl.ToggleRelay(id)
	case cmd.On != nil:
		r, err = h.ctrl.SetRelay(id, *cmd.On)
	default:
		return fmt.Errorf("%w: relay command needs \"on\" or \"toggle\"", ErrInvalidCommand)
	}
	if err != nil {
		return fmt.Errorf("relay %s: %w", id, err)
	}

	h.logger.Info("relay command applied", "relay_id", id, "status", r.Status)
	return nil
}

func (h *Handler) handleCycle(id cycle.ID, payload []byte) error {
	var cmd CycleCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	c, err := cycle.ParseControl(cmd.Control)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if err := h.ctrl.Control(id, c); err != nil {
		return fmt.Errorf("cycle %s %s: %w", id, c, err)
	}

	h.logger.Info("cycle command applied", "cycle_id", id, "control", c)
	return nil
}
