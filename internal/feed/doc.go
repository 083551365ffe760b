// Package feed connects to the Binance streaming endpoints and turns raw
// frames into typed events.
//
// Two logical subscriptions exist: the market-wide combined stream (the
// all-symbols ticker array) and the user-scoped data stream (execution
// reports and account positions, dialed via a REST-issued listen key).
//
// The Manager owns both subscriptions. It reconnects transparently with
// exponential backoff; once the attempt limit is exceeded the outage is
// treated as a feed discontinuity: the affected cache channels are purged
// before the subscription is rebuilt, so pre-gap data is never served.
package feed
