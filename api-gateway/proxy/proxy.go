package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medtrack/pharmacy-portal/api-gateway/config"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// ReverseProxy forwards requests to the configured upstream services.
type ReverseProxy struct {
	config *config.GatewayConfig
	client *http.Client
}

// NewReverseProxy creates a new reverse proxy
func NewReverseProxy(cfg *config.GatewayConfig) *ReverseProxy {
	return &ReverseProxy{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProxyRequest forwards the request to the target service
func (p *ReverseProxy) ProxyRequest(c *fiber.Ctx, serviceName string) error {
	svc, ok := p.config.Services[serviceName]
	if !ok {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown upstream service '%s'", serviceName),
		})
	}

	targetURL := p.buildTargetURL(c, svc)

	logger.Logger.Debug().
		Str("service", svc.Name).
		Str("target_url", targetURL).
		Str("path", c.Path()).
		Msg("Proxying request")

	req, err := http.NewRequestWithContext(
		c.UserContext(),
		c.Method(),
		targetURL,
		bytes.NewReader(c.Body()),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create request",
		})
	}

	p.copyHeaders(c, req)

	resp, err := p.client.Do(req)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to reach backend service",
			"service": svc.Name,
			"details": err.Error(),
		})
	}
	defer resp.Body.Close()

	p.copyResponseHeaders(c, resp)
	c.Status(resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read response",
		})
	}

	return c.Send(body)
}

// buildTargetURL constructs the full URL for the backend service
func (p *ReverseProxy) buildTargetURL(c *fiber.Ctx, svc config.ServiceConfig) string {
	path := string(c.Request().URI().Path())

	queryString := string(c.Request().URI().QueryString())
	if queryString != "" {
		queryString = "?" + queryString
	}

	return svc.BaseURL + path + queryString
}

// copyHeaders copies relevant headers from Fiber context to http.Request
func (p *ReverseProxy) copyHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		keyStr := string(key)
		if strings.ToLower(keyStr) == "host" {
			return
		}
		req.Header.Set(keyStr, string(value))
	})

	if auth := c.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())
}

// copyResponseHeaders copies headers from http.Response to Fiber context
func (p *ReverseProxy) copyResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for key, values := range resp.Header {
		if strings.ToLower(key) == "content-length" {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}
}
