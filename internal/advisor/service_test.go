package advisor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"finadvisor/internal/llm"
	"finadvisor/internal/marketdata"
	"finadvisor/internal/models"
	"finadvisor/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The mocks below satisfy the interfaces the service is built on.
var (
	_ storage.Storage  = (*MockStorage)(nil)
	_ CompletionClient = (*MockCompletionClient)(nil)
	_ QuoteClient      = (*MockQuoteClient)(nil)
	_ HeadlineClient   = (*MockHeadlineClient)(nil)
)

// MockStorage implements the storage.Storage interface for testing
type MockStorage struct {
	records []*models.QueryRecord
	saveErr error
	listErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) SaveQuery(ctx context.Context, record *models.QueryRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockStorage) Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	result := make([]*models.QueryRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, m.records[i])
	}
	return result, nil
}

func (m *MockStorage) GetQuery(ctx context.Context, id string) (*models.QueryRecord, error) {
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MockStorage) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MockStorage) Close() error {
	return nil
}

// MockCompletionClient implements CompletionClient for testing
type MockCompletionClient struct {
	answer   string
	usage    llm.Usage
	err      error
	requests [][]llm.Message
}

func (m *MockCompletionClient) Complete(ctx context.Context, messages []llm.Message, opts *llm.Options) (string, llm.Usage, error) {
	m.requests = append(m.requests, messages)
	if m.err != nil {
		return "", llm.Usage{}, m.err
	}
	return m.answer, m.usage, nil
}

func (m *MockCompletionClient) ModelName() string {
	return "test-model"
}

// MockQuoteClient implements QuoteClient for testing
type MockQuoteClient struct {
	quote *models.Quote
	err   error
}

func (m *MockQuoteClient) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	quote := *m.quote
	return &quote, nil
}

// MockHeadlineClient implements HeadlineClient for testing
type MockHeadlineClient struct {
	items     []models.NewsItem
	err       error
	lastLimit int
}

func (m *MockHeadlineClient) Headlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func testQuote() *models.Quote {
	return &models.Quote{
		Symbol:        "AAPL",
		Price:         171.02,
		Change:        1.96,
		ChangePercent: 1.1593,
		Currency:      "USD",
		AsOf:          time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Source:        "finnhub",
	}
}

func newTestService() (*Service, *MockCompletionClient, *MockQuoteClient, *MockHeadlineClient, *MockStorage) {
	completion := &MockCompletionClient{answer: "Hold a diversified portfolio and rebalance yearly."}
	market := &MockQuoteClient{quote: testQuote()}
	news := &MockHeadlineClient{items: []models.NewsItem{
		{Title: "Fed holds rates steady", URL: "https://example.com/fed"},
		{Title: "Tech earnings beat estimates", URL: "https://example.com/earnings"},
	}}
	store := NewMockStorage()

	return NewService(completion, market, news, store), completion, market, news, store
}

func TestNewService(t *testing.T) {
	service, _, _, _, store := newTestService()

	assert.NotNil(t, service)
	assert.Equal(t, store, service.storage)
}

func TestService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("Answers And Records", func(t *testing.T) {
		service, completion, _, _, store := newTestService()
		completion.usage = llm.Usage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42}

		advice, err := service.Ask(ctx, &models.AdviceRequest{
			Question:  "  Should I rebalance every quarter?  ",
			ClientKey: "203.0.113.7",
		})
		require.NoError(t, err)

		assert.Equal(t, "Should I rebalance every quarter?", advice.Question)
		assert.Equal(t, "Hold a diversified portfolio and rebalance yearly.", advice.Answer)
		assert.Equal(t, models.RiskLow, advice.RiskLevel)
		assert.Equal(t, "test-model", advice.Model)
		assert.False(t, advice.CreatedAt.IsZero())

		require.Len(t, store.records, 1)
		record := store.records[0]
		assert.Equal(t, "203.0.113.7", record.ClientKey)
		assert.Equal(t, "Should I rebalance every quarter?", record.Question)
		assert.Equal(t, advice.Answer, record.Answer)
		assert.Equal(t, models.RiskLow, record.RiskLevel)
		assert.Equal(t, "test-model", record.Model)
		assert.GreaterOrEqual(t, record.LatencyMS, int64(0))
	})

	t.Run("Sends System And User Messages", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()

		_, err := service.Ask(ctx, &models.AdviceRequest{Question: "Is now a good time to buy bonds?"})
		require.NoError(t, err)

		require.Len(t, completion.requests, 1)
		messages := completion.requests[0]
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].Role)
		assert.Contains(t, messages[0].Content, "financial advisor")
		assert.Equal(t, "user", messages[1].Role)
		assert.Equal(t, "Is now a good time to buy bonds?", messages[1].Content)
	})

	t.Run("Classifies High Risk Answers", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()
		completion.answer = "Leveraged ETFs can amplify losses very quickly."

		advice, err := service.Ask(ctx, &models.AdviceRequest{Question: "What about leveraged ETFs?"})
		require.NoError(t, err)
		assert.Equal(t, models.RiskHigh, advice.RiskLevel)
	})

	t.Run("Rejects Empty Question", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()

		_, err := service.Ask(ctx, &models.AdviceRequest{Question: "   "})
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeInvalidRequest, svcErr.Code)
		assert.Equal(t, 400, svcErr.StatusCode)
		assert.Empty(t, completion.requests)
	})

	t.Run("Maps Upstream Failure", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()
		completion.err = errors.New("connection refused")

		_, err := service.Ask(ctx, &models.AdviceRequest{Question: "Should I buy index funds?"})
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeUpstreamError, svcErr.Code)
		assert.Equal(t, 502, svcErr.StatusCode)
	})

	t.Run("Maps Upstream Timeout", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()
		completion.err = fmt.Errorf("request failed: %w", context.DeadlineExceeded)

		_, err := service.Ask(ctx, &models.AdviceRequest{Question: "Should I buy index funds?"})
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeUpstreamTimeout, svcErr.Code)
		assert.Equal(t, 504, svcErr.StatusCode)
	})

	t.Run("Rejects Blank Completion", func(t *testing.T) {
		service, completion, _, _, store := newTestService()
		completion.answer = "  \n "

		_, err := service.Ask(ctx, &models.AdviceRequest{Question: "Should I buy index funds?"})
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeModelRefusal, svcErr.Code)
		assert.Equal(t, 502, svcErr.StatusCode)
		assert.Empty(t, store.records)
	})

	t.Run("Storage Failure Is Not Fatal", func(t *testing.T) {
		service, _, _, _, store := newTestService()
		store.saveErr = errors.New("disk full")

		advice, err := service.Ask(ctx, &models.AdviceRequest{Question: "Should I buy index funds?"})
		require.NoError(t, err)
		assert.NotEmpty(t, advice.Answer)
	})
}

func TestService_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("Delegates To Market Client", func(t *testing.T) {
		service, _, _, _, _ := newTestService()

		quote, err := service.Quote(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", quote.Symbol)
		assert.Equal(t, 171.02, quote.Price)
	})

	t.Run("Requires Symbol", func(t *testing.T) {
		service, _, _, _, _ := newTestService()

		_, err := service.Quote(ctx, "   ")
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeInvalidRequest, svcErr.Code)
	})

	t.Run("Maps Unknown Symbol", func(t *testing.T) {
		service, _, market, _, _ := newTestService()
		market.err = fmt.Errorf("quote: %w", marketdata.ErrSymbolNotFound)

		_, err := service.Quote(ctx, "ZZZZ")
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeSymbolNotFound, svcErr.Code)
		assert.Equal(t, 404, svcErr.StatusCode)
		assert.Contains(t, svcErr.Message, "ZZZZ")
	})

	t.Run("Maps Provider Failure", func(t *testing.T) {
		service, _, market, _, _ := newTestService()
		market.err = errors.New("connection reset")

		_, err := service.Quote(ctx, "AAPL")
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeUpstreamError, svcErr.Code)
	})
}

func TestService_Headlines(t *testing.T) {
	ctx := context.Background()

	t.Run("Delegates To News Client", func(t *testing.T) {
		service, _, _, news, _ := newTestService()

		items, err := service.Headlines(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, 7, news.lastLimit)
	})

	t.Run("Maps Provider Failure", func(t *testing.T) {
		service, _, _, news, _ := newTestService()
		news.err = errors.New("rate limited upstream")

		_, err := service.Headlines(ctx, 5)
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeUpstreamError, svcErr.Code)
		assert.Equal(t, 502, svcErr.StatusCode)
	})
}

func TestService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Merges Quote Headlines And Commentary", func(t *testing.T) {
		service, completion, _, news, _ := newTestService()
		completion.answer = "Earnings momentum looks steady for now."

		analysis, err := service.Analyze(ctx, "AAPL")
		require.NoError(t, err)

		assert.Equal(t, "AAPL", analysis.Symbol)
		require.NotNil(t, analysis.Quote)
		assert.Equal(t, 171.02, analysis.Quote.Price)
		assert.Len(t, analysis.Headlines, 2)
		assert.Equal(t, "Earnings momentum looks steady for now.", analysis.Commentary)
		assert.Equal(t, models.RiskLow, analysis.RiskLevel)
		assert.False(t, analysis.CreatedAt.IsZero())
		assert.Equal(t, analysisHeadlineCount, news.lastLimit)

		// The commentary prompt carries the quote and the headlines.
		require.Len(t, completion.requests, 1)
		prompt := completion.requests[0][1].Content
		assert.Contains(t, prompt, "AAPL")
		assert.Contains(t, prompt, "171.02")
		assert.Contains(t, prompt, "Fed holds rates steady")
	})

	t.Run("Headline Failure Degrades To Empty List", func(t *testing.T) {
		service, completion, _, news, _ := newTestService()
		completion.answer = "Steady quarter."
		news.err = errors.New("news api down")

		analysis, err := service.Analyze(ctx, "AAPL")
		require.NoError(t, err)

		require.NotNil(t, analysis.Headlines)
		assert.Empty(t, analysis.Headlines)
		assert.Equal(t, "Steady quarter.", analysis.Commentary)
	})

	t.Run("Model Failure Degrades To Fallback Commentary", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()
		completion.err = errors.New("model overloaded")

		analysis, err := service.Analyze(ctx, "AAPL")
		require.NoError(t, err)

		assert.Contains(t, analysis.Commentary, "AAPL")
		assert.Contains(t, analysis.Commentary, "commentary is unavailable")
		assert.Equal(t, models.RiskModerate, analysis.RiskLevel)
	})

	t.Run("Blank Commentary Degrades To Fallback", func(t *testing.T) {
		service, completion, _, _, _ := newTestService()
		completion.answer = "   "

		analysis, err := service.Analyze(ctx, "AAPL")
		require.NoError(t, err)
		assert.Contains(t, analysis.Commentary, "commentary is unavailable")
	})

	t.Run("Quote Failure Is Fatal", func(t *testing.T) {
		service, completion, market, _, _ := newTestService()
		market.err = marketdata.ErrSymbolNotFound

		_, err := service.Analyze(ctx, "ZZZZ")
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeSymbolNotFound, svcErr.Code)
		assert.Empty(t, completion.requests)
	})
}

func TestService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Recent Records First", func(t *testing.T) {
		service, _, _, _, store := newTestService()
		for i := 1; i <= 3; i++ {
			record := models.NewQueryRecord("203.0.113.7", fmt.Sprintf("question %d", i))
			require.NoError(t, store.SaveQuery(ctx, record))
		}

		records, err := service.History(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "question 3", records[0].Question)
		assert.Equal(t, "question 2", records[1].Question)
	})

	t.Run("Maps Storage Failure", func(t *testing.T) {
		service, _, _, _, store := newTestService()
		store.listErr = errors.New("connection lost")

		_, err := service.History(ctx, 10)
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, models.ErrorCodeInternalError, svcErr.Code)
		assert.Equal(t, 500, svcErr.StatusCode)
	})
}

func TestServiceError(t *testing.T) {
	t.Run("Formats Wrapped Error", func(t *testing.T) {
		wrapped := errors.New("dial tcp: refused")
		err := NewUpstreamUnavailableError("market data provider unavailable", wrapped)

		assert.Equal(t, "market data provider unavailable: dial tcp: refused", err.Error())
		assert.Equal(t, wrapped, errors.Unwrap(err))
	})

	t.Run("Formats Bare Error", func(t *testing.T) {
		err := NewSymbolNotFoundError("ZZZZ")

		assert.Equal(t, "symbol 'ZZZZ' not found", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("Refusal Has Gateway Status", func(t *testing.T) {
		err := NewModelRefusalError()

		assert.Equal(t, models.ErrorCodeModelRefusal, err.Code)
		assert.Equal(t, 502, err.StatusCode)
	})
}
