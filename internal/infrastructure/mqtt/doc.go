// Package mqtt provides MQTT client connectivity for the relay cycle controller.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained relay state publishing
//   - Command topic subscriptions restored on reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Topic layout
//
//	{prefix}/relay/{id}/state        retained relay record (published)
//	{prefix}/cycle/{id}/event        cycle lifecycle events (published)
//	{prefix}/command/relay/{id}      {"on":true} or {"toggle":true} (subscribed)
//	{prefix}/command/cycle/{id}      {"control":"pause"} (subscribed)
//	{prefix}/system/status           retained online/offline
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().RelayState("pump"), relay)
package mqtt
