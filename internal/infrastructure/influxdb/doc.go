// Package influxdb provides the optional InfluxDB mirror for plantbridge.
//
// The relational store is the system of record. When enabled, every
// persisted reading is also written as a point so dashboards can chart
// moisture and temperature without querying the store.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror off
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) { logger.Warn("influx write failed", "error", err) })
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Write failures surface only through the callback; a mirror outage never
// causes a message to be dropped.
package influxdb
