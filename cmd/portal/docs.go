package main

// @title Pharmacy Portal Service API
// @version 1.0
// @description Branch portal service: inventory alerts, notification feed and chat relay

// @contact.name API Support
// @contact.url http://github.com/medtrack/pharmacy-portal

// @license.name MIT
// @license.url https://github.com/medtrack/pharmacy-portal/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Alerts
// @tag.description Inventory alert evaluation endpoints

// @tag.name Notifications
// @tag.description Notification feed and read-state endpoints

// @tag.name Relay
// @tag.description Detached chat surface relay endpoints

// @tag.name Health
// @tag.description Health check endpoints
