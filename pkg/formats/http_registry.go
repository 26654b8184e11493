package formats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/buyflow/buyflow/pkg/models"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPRegistry queries creative agents over HTTP for their published formats.
// Agents expose GET {agent_url}/formats/{format_id}; a 404 means the format
// is unknown, which GetFormat reports as nil without error.
type HTTPRegistry struct {
	client *http.Client
}

// NewHTTPRegistry creates an agent directory client. A nil client gets a
// default with a request timeout.
func NewHTTPRegistry(client *http.Client) *HTTPRegistry {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &HTTPRegistry{client: client}
}

func (r *HTTPRegistry) GetFormat(ctx context.Context, agentURL, formatID string) (*models.FormatSpec, error) {
	endpoint := NormalizeAgentURL(agentURL) + "/formats/" + url.PathEscape(formatID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build format request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query creative agent %s: %w", agentURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("creative agent %s returned status %d for format %s", agentURL, resp.StatusCode, formatID)
	}

	var spec models.FormatSpec

	err = json.NewDecoder(resp.Body).Decode(&spec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode format spec from %s: %w", agentURL, err)
	}

	return &spec, nil
}
