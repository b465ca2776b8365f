package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/yizeng/gab/gin/gorm/event-checkin/cmd/app"
)

// @title           Event Check-In API
// @version         1.0
// @description     Event and attendee directory with QR ticket issuance and idempotent check-in.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
