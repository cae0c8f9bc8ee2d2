package llm

import "fmt"

// ProviderError is returned when the provider responds with a non-2xx
// status. Body holds the raw response body and must never include API keys.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "llm provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm request failed: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("llm request failed: %s", e.Body)
}
