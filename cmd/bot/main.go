package main

import (
	"flag"

	"habboverify/internal/app"
	"habboverify/internal/config"
	"habboverify/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the settings file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		logger.Log.Fatalf("startup failed: %v", err)
	}
}
