// Package announce mirrors Glowdeck's control state onto MQTT.
//
// Every state change and a periodic heartbeat publish the full snapshot as
// a retained message, so any home-automation consumer that subscribes sees
// the current brightness, volume and track immediately. Delivery is
// best-effort: a dropped publish is healed by the next one.
package announce
