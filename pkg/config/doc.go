// Package config loads env-tagged configuration structs from the process
// environment, with an optional .env file for local development.
//
// Each component of the service defines its own Config struct next to the
// code it configures (Redis, Postgres, Paddle, HTTP server) and loads it
// with config.Load or config.MustLoad at startup.
package config
