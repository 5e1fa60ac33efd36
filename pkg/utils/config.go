package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("BIRDWATCH_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("BIRDWATCH_JWT_ISSUER")
	if issuer == "" {
		issuer = "birdwatch"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("BIRDWATCH_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: dur,
	}
}

type ServerConfig struct {
	Env        string
	Addr       string
	HeatmapTTL time.Duration
}

func LoadServerConfig() ServerConfig {
	addr := os.Getenv("BIRDWATCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// the sightings heatmap is recomputed at most once per TTL
	ttl := 300 * time.Second
	if s := os.Getenv("BIRDWATCH_HEATMAP_TTL_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Second
		}
	}

	return ServerConfig{
		Env:        os.Getenv("BIRDWATCH_ENV"),
		Addr:       addr,
		HeatmapTTL: ttl,
	}
}
