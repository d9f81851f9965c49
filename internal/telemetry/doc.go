// Package telemetry turns raw gateway messages into typed observations.
//
// Everything here is pure: no I/O, no clocks, no shared state.
//
//   - Parse decodes a JSON object payload
//   - Identify picks and normalises the device identity
//   - Classifier decides whether the device is a plant sensor and infers
//     its metadata
//   - MapFields extracts moisture, temperature and the other measurements
package telemetry
