// Package commands accepts relay and cycle commands over MQTT.
//
// Topics:
//
//	{prefix}/command/relay/{id}   {"on": true} | {"toggle": true}
//	{prefix}/command/cycle/{id}   {"control": "pause"}
package commands
