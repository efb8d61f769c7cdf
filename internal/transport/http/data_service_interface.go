package http

import (
	"context"

	"flarecli/internal/services"
	"flarecli/pkg/contracts/domain"
)

// DataServiceInterface defines the interface for dataset operations
type DataServiceInterface interface {
	Filter(ctx context.Context, cfg domain.FilterConfig) (domain.View, error)
	Aggregates(ctx context.Context, cfg domain.FilterConfig) (domain.Bundle, error)
	ExportCSV(ctx context.Context, cfg domain.FilterConfig) ([]byte, error)
	ExportExcel(ctx context.Context, cfg domain.FilterConfig) ([]byte, error)
	SchemaInfo(ctx context.Context) (services.SchemaInfo, error)
}
