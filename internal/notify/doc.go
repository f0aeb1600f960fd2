// Package notify fans relay and cycle changes out to the websocket hub,
// MQTT, InfluxDB, the relay history table and the hardware outputs.
//
// Actuator drives the hardware outputs synchronously on the scheduling
// thread and then hands the change on, so a relay line always follows its
// commanded status.
//
// The Dispatcher is a scheduler.Notifier for observers. It never blocks the
// scheduling thread: changes go onto a bounded queue drained by a single
// worker that calls every Sink in registration order. When the queue is
// full the change is dropped and counted.
package notify
