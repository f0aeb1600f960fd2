package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "relaycycle"

// Topics provides builders for relay cycle controller MQTT topics.
// Using these helpers keeps topic naming consistent between publishers and
// subscribers.
//
//	topics := mqtt.NewTopics("relaycycle")
//	topics.RelayState("pump")
//	// Returns: "relaycycle/relay/pump/state"
type Topics struct {
	Prefix string
}

// NewTopics returns topic builders rooted at prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// RelayState returns the retained state topic for a relay.
//
// Example: relaycycle/relay/pump/state
func (t Topics) RelayState(relayID string) string {
	return fmt.Sprintf("%s/relay/%s/state", t.root(), relayID)
}

// CycleEvent returns the topic for cycle lifecycle events.
//
// Example: relaycycle/cycle/irrigation/event
func (t Topics) CycleEvent(cycleID string) string {
	return fmt.Sprintf("%s/cycle/%s/event", t.root(), cycleID)
}

// RelayCommand returns the inbound command topic for a relay.
//
// Example: relaycycle/command/relay/pump
func (t Topics) RelayCommand(relayID string) string {
	return fmt.Sprintf("%s/command/relay/%s", t.root(), relayID)
}

// CycleCommand returns the inbound command topic for a cycle.
//
// Example: relaycycle/command/cycle/irrigation
func (t Topics) CycleCommand(cycleID string) string {
	return fmt.Sprintf("%s/command/cycle/%s", t.root(), cycleID)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: relaycycle/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}

// AllRelayCommands returns a pattern matching every relay command.
//
// Pattern: relaycycle/command/relay/+
func (t Topics) AllRelayCommands() string {
	return fmt.Sprintf("%s/command/relay/+", t.root())
}

// AllCycleCommands returns a pattern matching every cycle command.
//
// Pattern: relaycycle/command/cycle/+
func (t Topics) AllCycleCommands() string {
	return fmt.Sprintf("%s/command/cycle/+", t.root())
}

// AllRelayStates returns a pattern matching every relay state topic.
//
// Pattern: relaycycle/relay/+/state
func (t Topics) AllRelayStates() string {
	return fmt.Sprintf("%s/relay/+/state", t.root())
}

// ParseCommandTopic splits an inbound command topic into its target kind
// ("relay" or "cycle") and id. ok is false for topics outside the command
// tree.
func (t Topics) ParseCommandTopic(topic string) (kind, id string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.root()+"/command/")
	if !found {
		return "", "", false
	}
	kind, id, found = strings.Cut(rest, "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", "", false
	}
	if kind != "relay" && kind != "cycle" {
		return "", "", false
	}
	return kind, id, true
}
