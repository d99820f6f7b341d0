package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to the configuration directory, for alert thresholds")
	variant := flag.String("variant", "device", "Snapshot to print: device or hub")
	seed := flag.Int64("seed", 0, "Random seed; 0 seeds from the clock")
	pretty := flag.Bool("pretty", false, "Indent the JSON output")
	flag.Parse()

	thresholds := telemetry.DefaultThresholds()
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		thresholds = services.Thresholds(&cfg.Thresholds)
	}

	opts := []telemetry.Option{telemetry.WithThresholds(thresholds)}
	if *seed != 0 {
		opts = append(opts, telemetry.WithSeed(*seed))
	}
	gen := telemetry.New(opts...)

	var snapshot interface{}
	switch *variant {
	case "device":
		snapshot = gen.Generate()
	case "hub":
		snapshot = gen.GenerateHub()
	default:
		fmt.Fprintf(os.Stderr, "Unknown variant %q, want device or hub\n", *variant)
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	if *pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode snapshot: %v\n", err)
		os.Exit(1)
	}
}
