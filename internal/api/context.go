package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

type ctxKey int

const adminKey ctxKey = iota

// withAdmin marks the request as made by an authenticated admin client
func withAdmin(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, adminKey, client)
}

// adminFromContext returns the admin client of the request, nil on public routes
func adminFromContext(ctx context.Context) *models.ApiClient {
	client, _ := ctx.Value(adminKey).(*models.ApiClient)
	return client
}

// requestLogger tags the default logger with the request id and, on admin
// routes, the client name
func requestLogger(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if admin := adminFromContext(ctx); admin != nil {
		logger = logger.With("client", admin.Name)
	}
	return logger
}
