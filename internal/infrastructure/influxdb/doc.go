// Package influxdb records relay state telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched writes and health monitoring.
//
// Measurements:
//   - relay_state (tag relay_id; fields on, level, name)
//   - cycle_event (tags cycle_id, event; field count)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry not configured
//	}
//	defer client.Close()
//
//	client.WriteRelayState("pump", "Main pump", true, time.Now())
//
// Write operations are non-blocking and batch errors are delivered through
// SetOnError. Connection and health check errors are returned directly.
package influxdb
