package main

import (
	"context"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/config"
	"github.com/fciautomation/payroll-admin-client/internal/console"
	"github.com/fciautomation/payroll-admin-client/internal/notify"
)

func main() {
	// load values from .env into the system
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}

	dialog := console.NewStdioDialog()
	cfg := config.NewApplicationConfig(func(err error) {
		dialog.Alert("Connection Error", "Connection lost. Please check if the server is running.")
	})

	notifier := notify.New(cfg.EmailClient(), cfg.EmailTo(), cfg.EmailFrom())

	app := console.New(cfg, dialog, notifier)
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("console exited with error: %v", err)
	}
}
