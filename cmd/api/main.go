package main

import (
	"log"

	"convtest/internal/config"
	"convtest/internal/container"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	if err := c.Server().Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
