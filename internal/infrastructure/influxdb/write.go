package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the controller.
const (
	MeasurementRelayState = "relay_state"
	MeasurementCycleEvent = "cycle_event"
)

// RelayStatePoint builds the relay_state point for a commanded status.
// The relay id is a tag; status is stored both as a bool and as 0/1 so it
// can be graphed as a step series.
func RelayStatePoint(relayID, name string, on bool, at time.Time) *write.Point {
	level := 0
	if on {
		level = 1
	}
	return write.NewPoint(
		MeasurementRelayState,
		map[string]string{"relay_id": relayID},
		map[string]interface{}{
			"on":    on,
			"level": level,
			"name":  name,
		},
		at,
	)
}

// CycleEventPoint builds the cycle_event point for a lifecycle transition
// such as "start", "stop" or "pause".
func CycleEventPoint(cycleID, event string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCycleEvent,
		map[string]string{"cycle_id": cycleID, "event": event},
		map[string]interface{}{"count": 1},
		at,
	)
}

// WriteRelayState records a relay status change. The write is non-blocking;
// points are batched and sent asynchronously.
//
// Example:
//
//	client.WriteRelayState("pump", "Main pump", true, time.Now())
func (c *Client) WriteRelayState(relayID, name string, on bool, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(RelayStatePoint(relayID, name, on, at))
}

// WriteCycleEvent records a cycle lifecycle transition.
func (c *Client) WriteCycleEvent(cycleID, event string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(CycleEventPoint(cycleID, event, at))
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
