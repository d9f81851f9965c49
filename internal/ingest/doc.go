// Package ingest runs the per-message pipeline:
//
//	parse → identify → classify → map fields → resolve sensor → write reading
//
// Every stage may end the message early. Failures are logged at the level
// their kind deserves and counted, but never returned to the MQTT layer, so
// one bad message cannot stall the subscription.
//
//	malformed payload            warn   dropped
//	no identity                  warn   dropped
//	not a plant sensor           -      dropped silently
//	unknown, no fallback owner   warn   dropped
//	store failure                error  dropped, no retry
//	identity conflict            error  dropped, distinct message
package ingest
