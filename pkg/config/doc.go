// Package config loads and validates the sentinel configuration.
//
// Configuration is a single YAML file covering the operation policies, quota
// resources, abuse tuning, deferred-queue tuning, counter storage, the admin
// server, and telemetry. Loading applies defaults first and validates last,
// so a minimal file (or none at all) yields a fully working configuration
// with the built-in policy table.
package config
