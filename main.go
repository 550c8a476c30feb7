package main

import (
	"os"

	"github.com/joho/godotenv"

	"wxnow/internal"
	"wxnow/internal/logger"
)

func main() {
	// Optional .env for WEATHER_CITY / WEATHER_DEBUG and friends.
	_ = godotenv.Load()

	logger.Configure(logger.Options{Level: "warn"})

	if err := internal.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
