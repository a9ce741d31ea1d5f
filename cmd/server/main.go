package main

import (
	"log"

	"go-cord/internal/api"
	"go-cord/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := api.Serve(cfg); err != nil {
		log.Fatal(err)
	}
}
