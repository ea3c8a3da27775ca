// Package config loads and validates the service configuration from a
// YAML file, with store credentials taken from the environment. The
// resulting Config struct is built once at process start and injected
// into components; business logic never reads ambient environment state.
package config
