package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/config"
	"github.com/copbot/locator/internal/handler"
	"github.com/copbot/locator/internal/station"
)

var (
	lambdaStart     = lambda.Start // Allow mocking of lambda.Start in tests
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
	finderFactory   station.FinderFactory = &station.DefaultFinderFactory{}
)

func initializeService() error {
	var initError error
	setupOnce.Do(func() {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()

		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		h, err := handler.BuildStationsHandler(cfg, config.GetSessionCacheConfig(), finderFactory)
		if err != nil {
			initError = fmt.Errorf("failed to initialize handler: %w", err)
			log.Error().Err(err).Msg("Failed to initialize stations handler")
			return
		}
		stationsHandler = h
	})
	return initError
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if stationsHandler == nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"responseType":"error","error":"Handler not initialized"}`,
		}, fmt.Errorf("handler not initialized")
	}
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	if err := initializeService(); err != nil {
		log.Fatal().Err(err).Msg("Service initialization failed")
	}
	lambdaStart(handleRequest)
}
