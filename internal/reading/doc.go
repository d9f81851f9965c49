// Package reading records plant-sensor measurements.
//
// Readings are append-only. Each carries owner_id_snapshot, the owner the
// sensor had when the message was processed, so moving a sensor to another
// plant never rewrites history.
package reading
