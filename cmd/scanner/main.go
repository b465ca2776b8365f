// Command scanner is the door agent. It points a camera stream at the scan
// controller and resolves every detected QR payload against the check-in API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/camera"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/logger"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/scan"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/service"
)

func main() {
	var (
		streamURL   = flag.String("stream", "http://127.0.0.1:8081/stream", "MJPEG camera stream URL")
		apiBaseURL  = flag.String("api", "http://127.0.0.1:8080", "check-in API base URL")
		eventID     = flag.String("event", "", "event to admit against (required)")
		token       = flag.String("token", os.Getenv("SCANNER_TOKEN"), "bearer token for the API")
		cooldown    = flag.Duration("cooldown", scan.DefaultCooldown, "pause after each surfaced outcome")
		environment = flag.String("environment", "production", "logger environment")
		insecure    = flag.Bool("insecure", false, "allow a plain-HTTP stream on a non-loopback host")
	)
	flag.Parse()

	if err := run(*streamURL, *apiBaseURL, *eventID, *token, *environment, *cooldown, *insecure); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(streamURL, apiBaseURL, eventID, token, environment string, cooldown time.Duration, insecure bool) error {
	if eventID == "" {
		return fmt.Errorf("an event ID is required (-event)")
	}

	if err := logger.Init(environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	device := camera.NewMJPEGDevice(streamURL)
	device.AllowInsecure = insecure

	resolver := &apiResolver{
		baseURL: apiBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	controller := scan.NewController(device, resolver,
		scan.WithCooldown(cooldown),
		scan.OnOutcome(logOutcome),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("scanner starting",
		zap.String("stream", streamURL),
		zap.String("event", eventID))
	controller.SelectEvent(ctx, eventID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("scanner shutting down")
	controller.Stop()

	if err := controller.LastError(); err != nil && controller.Phase() == scan.PhaseError {
		return fmt.Errorf("scan session failed -> %w", err)
	}

	return nil
}

func logOutcome(outcome domain.CheckInOutcome) {
	if outcome.Success {
		zap.L().Info("admitted", zap.String("message", outcome.Message))
		return
	}

	zap.L().Warn("rejected",
		zap.String("reason", string(outcome.Reason)),
		zap.String("message", outcome.Message))
}

// apiResolver resolves payloads over the HTTP check-in endpoint. Transport
// failures come back as retryable outcomes so the scan loop keeps running.
type apiResolver struct {
	baseURL string
	token   string
	client  *http.Client
}

func (r *apiResolver) Resolve(ctx context.Context, eventID, payload string) domain.CheckInOutcome {
	body, err := json.Marshal(map[string]string{"payload": payload})
	if err != nil {
		return retryableOutcome(err)
	}

	url := fmt.Sprintf("%v/api/v1/events/%v/checkin", r.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retryableOutcome(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return retryableOutcome(err)
	}
	defer resp.Body.Close()

	var outcome domain.CheckInOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return retryableOutcome(fmt.Errorf("status %v -> %w", resp.StatusCode, err))
	}

	return outcome
}

func retryableOutcome(err error) domain.CheckInOutcome {
	zap.L().Error("check-in request failed", zap.Error(err))

	return domain.CheckInOutcome{
		Success: false,
		Reason:  domain.ReasonDirectoryError,
		Message: service.MsgDirectoryError,
	}
}
