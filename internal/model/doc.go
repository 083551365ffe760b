// Package model defines the records persisted to the snapshot cache.
//
// Conventions:
//   - Prices and quantities: decimal strings, exactly as Binance sends them
//   - Timestamps: int64 milliseconds since Unix epoch
//
// All types marshal to JSON; the JSON form is the on-disk snapshot payload,
// so the field tags are part of the cache format.
package model
