package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db/models"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config", "Path to the configuration directory")
	name := flag.String("operator", "", "Operator name carried by the token")
	role := flag.String("role", string(models.RoleOperator), "Role: admin, operator or viewer")
	ttl := flag.Duration("ttl", 0, "Token lifetime; defaults to jwt.expiration_hours")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		os.Exit(2)
	}

	r := models.Role(*role)
	switch r {
	case models.RoleAdmin, models.RoleOperator, models.RoleViewer:
	default:
		fmt.Fprintf(os.Stderr, "Unknown role %q\n", *role)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.JWT.ExpirationHours) * time.Hour
	}

	operator := &models.Operator{Name: *name, Role: r}
	token, err := operator.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
