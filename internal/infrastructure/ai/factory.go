package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/spacecheck/internal/domain/ai"
)

// NewProvider builds a provider by name. "databricks" talks to the
// workspace serving endpoint; "mock" is offline.
func NewProvider(providerName, host, model, token string) (ai.Provider, error) {
	switch providerName {
	case "databricks", "":
		if host == "" {
			host = os.Getenv("DATABRICKS_HOST")
		}
		if token == "" {
			token = os.Getenv("DATABRICKS_TOKEN")
		}
		if host == "" {
			return nil, fmt.Errorf("Databricks host not provided (set DATABRICKS_HOST)")
		}
		return NewDatabricksProvider(host, model, token), nil
	case "mock":
		return &MockProvider{Model: model}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}
