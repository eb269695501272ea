// Package pg provides PostgreSQL connection pooling, goose-driven schema
// migrations, and error classification helpers. The subscription status
// store uses a pgx pool as one of its persistence backends.
package pg
