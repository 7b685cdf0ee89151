package config

import (
	"os"
	"time"
)

// ServiceConfig holds configuration for an upstream service
type ServiceConfig struct {
	Name        string
	BaseURL     string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port     string
	Services map[string]ServiceConfig
}

// LoadConfig loads the gateway configuration
func LoadConfig() *GatewayConfig {
	return &GatewayConfig{
		Port: getEnv("GATEWAY_PORT", "8000"),
		Services: map[string]ServiceConfig{
			"portal": {
				Name:        "portal-service",
				BaseURL:     getEnv("PORTAL_SERVICE_URL", "http://localhost:8080"),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
			"messaging": {
				Name:        "messaging-service",
				BaseURL:     getEnv("MESSAGING_SERVICE_URL", "http://localhost:8081"),
				Timeout:     30 * time.Second,
				HealthCheck: "/health",
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
