// Package api provides the Binance REST client used as the fallback of
// last resort when the snapshot cache misses, plus the listen-key
// endpoints that bootstrap the user data stream.
//
// Account and order queries are signed (HMAC-SHA256 over the query
// string); market data queries are public.
package api
