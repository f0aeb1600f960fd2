package influxdb

import "errors"

// Errors returned by Connect and HealthCheck. Check with errors.Is.
var (
	ErrDisabled         = errors.New("influxdb: telemetry disabled")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrNotConnected     = errors.New("influxdb: not connected")
)
