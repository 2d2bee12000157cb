// Package telemetry records control-state changes to InfluxDB.
//
// Each brightness, volume, track or message-board change becomes one point
// in the "control" measurement. Writes go through the client library's
// non-blocking batched API, so a slow or absent InfluxDB never stalls
// request handling; async write failures are reported through an error
// callback and logged.
//
// Telemetry is optional and disabled by default. The rest of the service
// has no dependency on it.
package telemetry
