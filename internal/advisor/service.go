package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"finadvisor/internal/llm"
	"finadvisor/internal/marketdata"
	"finadvisor/internal/models"
	"finadvisor/internal/storage"
)

// advisorSystemPrompt frames every advice completion. Kept short so it
// spends little of the token budget.
const advisorSystemPrompt = "You are a careful financial advisor. " +
	"Give practical, balanced guidance, name the downsides, and never present speculation as fact. " +
	"Say when a question needs a licensed professional."

// analysisHeadlineCount is how many headlines feed the symbol analysis.
const analysisHeadlineCount = 5

// Service handles advice, market lookups, and analysis business logic
type Service struct {
	llm     CompletionClient
	market  QuoteClient
	news    HeadlineClient
	storage storage.Storage
}

// NewService creates a new advisor service on top of the given upstream
// clients and storage backend
func NewService(completion CompletionClient, market QuoteClient, news HeadlineClient, store storage.Storage) *Service {
	return &Service{
		llm:     completion,
		market:  market,
		news:    news,
		storage: store,
	}
}

// Ask answers a financial question with the model and records the exchange
func (s *Service) Ask(ctx context.Context, req *models.AdviceRequest) (*models.Advice, error) {
	// Validate and normalize request
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid request", err)
	}
	req.Normalize()

	messages := []llm.Message{
		{Role: "system", Content: advisorSystemPrompt},
		{Role: "user", Content: req.Question},
	}

	start := time.Now()
	answer, usage, err := s.llm.Complete(ctx, messages, nil)
	latency := time.Since(start)
	if err != nil {
		return nil, mapUpstreamError("advice model", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, NewModelRefusalError()
	}

	riskLevel := ClassifyRisk(answer)

	// Record the exchange. Storage failures are logged, not returned;
	// the caller already has their answer.
	record := models.NewQueryRecord(req.ClientKey, req.Question)
	record.Answer = answer
	record.RiskLevel = riskLevel
	record.Model = s.llm.ModelName()
	record.LatencyMS = latency.Milliseconds()

	if err := s.storage.SaveQuery(ctx, record); err != nil {
		slog.Warn("Failed to record query",
			"query_id", record.ID,
			"error", err)
	}

	slog.Debug("Advice generated",
		"query_id", record.ID,
		"risk_level", riskLevel,
		"latency_ms", record.LatencyMS,
		"total_tokens", usage.TotalTokens)

	return &models.Advice{
		Question:  req.Question,
		Answer:    answer,
		RiskLevel: riskLevel,
		Model:     record.Model,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Quote returns the current market quote for the given symbol
func (s *Service) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, NewInvalidRequestError("symbol is required", nil)
	}

	quote, err := s.market.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrSymbolNotFound) {
			return nil, NewSymbolNotFoundError(symbol)
		}
		return nil, mapUpstreamError("market data provider", err)
	}

	return quote, nil
}

// Headlines returns up to limit business headlines. The news client owns
// the limit defaults and clamping.
func (s *Service) Headlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	items, err := s.news.Headlines(ctx, limit)
	if err != nil {
		return nil, mapUpstreamError("news provider", err)
	}

	return items, nil
}

// Analyze merges a quote, related headlines, and model commentary for one
// symbol. The quote is mandatory; headlines and commentary degrade.
func (s *Service) Analyze(ctx context.Context, symbol string) (*models.Analysis, error) {
	quote, err := s.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	headlines, err := s.news.Headlines(ctx, analysisHeadlineCount)
	if err != nil {
		slog.Warn("Headline fetch failed during analysis",
			"symbol", quote.Symbol,
			"error", err)
		headlines = []models.NewsItem{}
	}
	if headlines == nil {
		headlines = []models.NewsItem{}
	}

	commentary := s.commentary(ctx, quote, headlines)

	return &models.Analysis{
		Symbol:     quote.Symbol,
		Quote:      quote,
		Headlines:  headlines,
		Commentary: commentary,
		RiskLevel:  ClassifyRisk(commentary),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// History returns the most recent answered questions
func (s *Service) History(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	records, err := s.storage.Queries(ctx, limit)
	if err != nil {
		return nil, NewInternalError("failed to load query history", err)
	}

	return records, nil
}

// commentary asks the model for a short read on the quote and headlines,
// falling back to a static line when the model is unavailable.
func (s *Service) commentary(ctx context.Context, quote *models.Quote, headlines []models.NewsItem) string {
	messages := []llm.Message{
		{Role: "system", Content: advisorSystemPrompt},
		{Role: "user", Content: analysisPrompt(quote, headlines)},
	}

	text, _, err := s.llm.Complete(ctx, messages, nil)
	if err != nil {
		slog.Warn("Model commentary unavailable, using fallback",
			"symbol", quote.Symbol,
			"error", err)
		return fallbackCommentary(quote)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackCommentary(quote)
	}

	return text
}

func analysisPrompt(quote *models.Quote, headlines []models.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Give a short assessment of %s.\n", quote.Symbol)
	fmt.Fprintf(&b, "Price %.2f %s, change %+.2f (%+.2f%%).\n",
		quote.Price, quote.Currency, quote.Change, quote.ChangePercent)

	if len(headlines) > 0 {
		b.WriteString("Recent headlines:\n")
		for _, item := range headlines {
			fmt.Fprintf(&b, "- %s\n", item.Title)
		}
	}

	b.WriteString("Answer in two or three sentences and note anything that affects near-term risk.")
	return b.String()
}

func fallbackCommentary(quote *models.Quote) string {
	return fmt.Sprintf("%s is trading at %.2f (%+.2f%% today). Model commentary is unavailable; treat the numbers with caution until it returns.",
		quote.Symbol, quote.Price, quote.ChangePercent)
}

// mapUpstreamError turns a provider failure into a typed service error.
// Deadline and transport timeouts map to 504, everything else to 502.
func mapUpstreamError(upstream string, err error) *ServiceError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewUpstreamTimeoutError(fmt.Sprintf("%s timed out", upstream), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewUpstreamTimeoutError(fmt.Sprintf("%s timed out", upstream), err)
	}

	return NewUpstreamUnavailableError(fmt.Sprintf("%s unavailable", upstream), err)
}
