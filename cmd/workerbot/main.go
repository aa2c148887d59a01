package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "workerbot/core/cmd"
	"workerbot/internal/app"
)

func main() {
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(carrier.(*app.Config))
		},
	})
	if err != nil {
		log.Fatalf("workerbot: %v", err)
	}
}
