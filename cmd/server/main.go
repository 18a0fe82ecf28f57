package main

import (
	"flag"
	"log"

	"github.com/sladedevelops/email-microwave/internal/app"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Create and run application
	a, err := app.New(*configFile)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v\n", err)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		log.Fatalf("Application error: %v\n", err)
	}
}
