// Package mqtt provides the MQTT client used by the state announcer.
//
// Glowdeck is publish-only on MQTT: retained control-state snapshots on
// glowdeck/status and liveness messages on glowdeck/system/status. A Last
// Will and Testament marks unexpected disconnects so home-automation
// consumers can tell a crash from a graceful shutdown.
//
// The client auto-reconnects with exponential backoff; publishes during an
// outage fail fast with ErrNotConnected and the announcer simply drops
// them, since the next state change (or heartbeat) re-publishes the full
// retained snapshot anyway.
package mqtt
