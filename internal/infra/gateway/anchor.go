package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/usecase"
)

// PinGateway anchors metadata documents on the pinning service and returns
// the content identifier. Stored documents are never deleted; an anchor whose
// mint later fails is an accepted orphan.
type PinGateway struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewPinGateway(endpoint, token string) *PinGateway {
	return &PinGateway{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *PinGateway) Store(ctx context.Context, payload []byte) (string, error) {
	body, err := json.Marshal(map[string]any{
		"pinataContent": json.RawMessage(payload),
		"pinataMetadata": map[string]any{
			"name": "roast-metadata.json",
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to build pin request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build pin request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.ExternalServiceError{Service: "content anchor", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ExternalServiceError{
			Service: "content anchor",
			Err:     fmt.Errorf("pinning service returned status %d", resp.StatusCode),
		}
	}

	var result struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", domain.ExternalServiceError{Service: "content anchor", Err: err}
	}
	if result.IpfsHash == "" {
		return "", domain.ExternalServiceError{
			Service: "content anchor",
			Err:     errors.New("pinning service returned empty hash"),
		}
	}

	return result.IpfsHash, nil
}

var _ usecase.ContentAnchor = (*PinGateway)(nil)
