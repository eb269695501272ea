// Package redis provides Redis connection bootstrapping with retries and a
// readiness probe. The subscription status store uses a Redis client as one
// of its persistence backends.
package redis
