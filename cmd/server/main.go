package main

import (
	"flag"
	"log"

	approuters "github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/app_routers"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/configuration"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (optional; env vars override)")
	flag.Parse()

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
