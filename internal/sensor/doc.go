// Package sensor is the registry of physical plant sensors.
//
// A Sensor is keyed by its canonical device identity (AA:BB:CC:DD:EE:FF for
// BLE MACs, otherwise the raw gateway identifier) and belongs to exactly one
// owner, the plant or asset it is installed in.
//
// The Resolver turns an identity seen on the bus into a sensor id and the
// owner at that moment:
//
//   - known sensor: apply a minimal metadata patch, return its current owner
//   - unknown sensor, fallback owner configured: auto-register it there
//   - unknown sensor, no fallback owner: ErrUnregisteredSensor
//
// Metadata reconciliation only ever fills in or corrects fields. A value the
// gateway did not report never overwrites one that is stored.
package sensor
