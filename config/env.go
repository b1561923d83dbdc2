package config

import "os"

// DefaultCompanyID is the tenant scope every ingested row must carry.
// Multi-tenant provisioning lives outside this service, so the marker
// is a fixed constant checked during validation.
const DefaultCompanyID = 1

// GetEnv reads an environment variable, returning "" when unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvOrDefault reads an environment variable with a fallback value.
func GetEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
