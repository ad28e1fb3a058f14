// Package config defines runtime defaults for the Bonfire signaling server
// and loads overrides from environment variables and the optional ICE server
// file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

// Config holds the server configuration, including the abuse-protection
// parameters for the broadcast path.
type Config struct {
	Port           string
	AllowedOrigins []string

	JWTSecret string

	MaxContentLength int
	HistoryCapacity  int

	RateLimitMax    int
	RateLimitWindow time.Duration

	PresenceInterval time.Duration
	AuthDeadline     time.Duration

	HandshakeRPS   float64
	HandshakeBurst int

	ICEServers []protocol.ICEServer
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             ":8080",
		AllowedOrigins:   []string{"http://localhost:8080"},
		JWTSecret:        "change-me-in-production",
		MaxContentLength: 2000,
		HistoryCapacity:  50,
		RateLimitMax:     10,
		RateLimitWindow:  5 * time.Second,
		PresenceInterval: 30 * time.Second,
		AuthDeadline:     10 * time.Second,
		HandshakeRPS:     5,
		HandshakeBurst:   10,
		ICEServers: []protocol.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// FromEnv loads the configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func FromEnv() Config {
	cfg := Default()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	cfg.MaxContentLength = parseInt(os.Getenv("MAX_CONTENT_LENGTH"), cfg.MaxContentLength)
	cfg.HistoryCapacity = parseInt(os.Getenv("HISTORY_CAPACITY"), cfg.HistoryCapacity)
	cfg.RateLimitMax = parseInt(os.Getenv("RATE_LIMIT_MAX"), cfg.RateLimitMax)
	cfg.RateLimitWindow = parseSeconds(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), cfg.RateLimitWindow)
	cfg.PresenceInterval = parseSeconds(os.Getenv("PRESENCE_INTERVAL_SECONDS"), cfg.PresenceInterval)
	cfg.AuthDeadline = parseSeconds(os.Getenv("AUTH_DEADLINE_SECONDS"), cfg.AuthDeadline)
	cfg.HandshakeRPS = parseFloat(os.Getenv("HANDSHAKE_RPS"), cfg.HandshakeRPS)
	cfg.HandshakeBurst = parseInt(os.Getenv("HANDSHAKE_BURST"), cfg.HandshakeBurst)

	if path := os.Getenv("ICE_CONFIG"); path != "" {
		servers, err := LoadICEServers(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ignoring ICE config %s: %v\n", path, err)
		} else {
			cfg.ICEServers = servers
		}
	}

	return cfg
}

// iceFile is the on-disk shape of the ICE server list.
type iceFile struct {
	ICEServers []protocol.ICEServer `yaml:"iceServers"`
}

// LoadICEServers reads the STUN/TURN endpoint list handed to clients in
// auth-success.
func LoadICEServers(path string) ([]protocol.ICEServer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f iceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.ICEServers) == 0 {
		return nil, fmt.Errorf("%s lists no ICE servers", path)
	}
	for i, s := range f.ICEServers {
		if len(s.URLs) == 0 {
			return nil, fmt.Errorf("%s: iceServers[%d] has no urls", path, i)
		}
	}
	return f.ICEServers, nil
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseFloat(value string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseSeconds(value string, fallback time.Duration) time.Duration {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return time.Duration(parsed) * time.Second
	}
	return fallback
}
