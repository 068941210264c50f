package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// LoggingMiddleware is a middleware for logging requests and responses.
// Bodies are only logged at debug level; they carry payment records.
type LoggingMiddleware struct{}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware() LoggingMiddleware {
	return LoggingMiddleware{}
}

// Handle handles the logging middleware
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *slog.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()
		logger = logger.With("requestId", request.RequestContext.RequestID)

		logger.Info("REQUEST",
			"method", request.HTTPMethod,
			"path", request.Path,
			"headers", maskSensitiveHeaders(request.Headers))
		if request.Body != "" {
			logger.Debug("REQUEST", "body", request.Body)
		}

		response, err := next(ctx, logger, request)

		if err != nil {
			logger.Error("ERROR", "error", err)
		}
		logger.Info("RESPONSE",
			"status", response.StatusCode,
			"duration", time.Since(startTime))
		if response.Body != "" {
			logger.Debug("RESPONSE", "body", response.Body)
		}

		return response, err
	}
}

// maskSensitiveHeaders masks sensitive headers
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	maskedHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		maskedHeaders[k] = v
	}

	sensitiveHeaders := []string{
		"Authorization",
		"authorization",
		"X-Api-Key",
		"Cookie",
	}
	for _, header := range sensitiveHeaders {
		if _, ok := maskedHeaders[header]; ok {
			maskedHeaders[header] = "***"
		}
	}

	return maskedHeaders
}
