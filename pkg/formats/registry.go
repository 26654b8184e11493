// Package formats validates creative-format references against a product's
// tenant configuration and a creative-agent directory.
package formats

import (
	"context"
	"strings"

	"github.com/buyflow/buyflow/pkg/models"
)

// Registry is the creative agent directory. GetFormat returns nil when the
// agent does not publish the format.
type Registry interface {
	GetFormat(ctx context.Context, agentURL, formatID string) (*models.FormatSpec, error)
}

// Known agent URL suffixes appended by transport bindings. They are not part
// of the agent identity and are stripped before comparison.
var knownSuffixes = []string{"/mcp", "/a2a"}

// NormalizeAgentURL strips trailing slashes and known transport suffixes so
// registered and supplied agent URLs compare equal regardless of which
// variant the caller used.
func NormalizeAgentURL(agentURL string) string {
	normalized := strings.TrimRight(agentURL, "/")

	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			normalized = strings.TrimSuffix(normalized, suffix)

			break
		}
	}

	return strings.TrimRight(normalized, "/")
}
