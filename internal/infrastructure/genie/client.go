// Package genie retrieves Genie Space configurations from a Databricks
// workspace and parses pasted configuration JSON.
package genie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// Client fetches space configurations over the workspace REST API.
// Authentication is either a personal access token or an OAuth2 M2M
// client-credentials flow against the workspace token endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(host, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(host, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// NewClientWithOAuth creates a client using machine-to-machine OAuth2
// client credentials. The token source refreshes transparently.
func NewClientWithOAuth(host, clientID, clientSecret string) *Client {
	base := strings.TrimSuffix(host, "/")
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/oidc/v1/token",
		Scopes:       []string{"all-apis"},
	}
	return &Client{
		baseURL:    base,
		httpClient: cfg.Client(context.Background()),
	}
}

// NewClientWithHTTPClient creates a client against an explicit base URL
// with a caller-supplied transport. Used by tests.
func NewClientWithHTTPClient(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// spaceEnvelope is the REST response for a space fetched with
// include_serialized_space=true. The serialized_space field arrives as a
// JSON string on current workspaces; older responses inline the object.
type spaceEnvelope struct {
	SpaceID         string          `json:"space_id"`
	Title           string          `json:"title"`
	SerializedSpace json.RawMessage `json:"serialized_space"`
}

// FetchSpace retrieves a space configuration by id. Any failure wraps into
// an analysis.FetchError; there is no partial result.
func (c *Client) FetchSpace(ctx context.Context, spaceID string) (*space.Document, error) {
	url := fmt.Sprintf("%s/api/2.0/genie/spaces/%s?include_serialized_space=true", c.baseURL, spaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &analysis.FetchError{SpaceID: spaceID, Err: err}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &analysis.FetchError{SpaceID: spaceID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &analysis.FetchError{SpaceID: spaceID, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &analysis.FetchError{
			SpaceID: spaceID,
			Err:     fmt.Errorf("workspace API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var envelope spaceEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &analysis.FetchError{SpaceID: spaceID, Err: fmt.Errorf("decode response: %w", err)}
	}

	doc, err := decodeSerializedSpace(envelope.SerializedSpace)
	if err != nil {
		return nil, &analysis.FetchError{SpaceID: spaceID, Err: err}
	}
	return doc, nil
}

// decodeSerializedSpace handles both wire forms of serialized_space: a JSON
// string containing the configuration, or the configuration object inline.
func decodeSerializedSpace(raw json.RawMessage) (*space.Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("response is missing the serialized_space field")
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode serialized_space string: %w", err)
		}
		return space.ParseDocument([]byte(inner))
	}
	return space.ParseDocument(raw)
}
