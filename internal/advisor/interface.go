package advisor

import (
	"context"

	"finadvisor/internal/llm"
	"finadvisor/internal/models"
)

// ServiceInterface defines the interface for advisor service operations
type ServiceInterface interface {
	// Ask answers a financial question and records the exchange
	Ask(ctx context.Context, req *models.AdviceRequest) (*models.Advice, error)

	// Quote returns the current market quote for the given symbol
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// Headlines returns up to limit business headlines
	Headlines(ctx context.Context, limit int) ([]models.NewsItem, error)

	// Analyze merges a quote, related headlines, and model commentary
	// for the given symbol
	Analyze(ctx context.Context, symbol string) (*models.Analysis, error)

	// History returns the most recent answered questions
	History(ctx context.Context, limit int) ([]*models.QueryRecord, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// CompletionClient is the surface the service needs from the model provider.
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, llm.Usage, error)
	ModelName() string
}

// QuoteClient is the surface the service needs from the market-data provider.
type QuoteClient interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// HeadlineClient is the surface the service needs from the news provider.
type HeadlineClient interface {
	Headlines(ctx context.Context, limit int) ([]models.NewsItem, error)
}
