package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/usecase"
)

const generatorSystemPrompt = "You are a savage roast comedian. Write one short, witty, " +
	"brutal roast of the given person. Keep it under 280 characters, no hashtags, " +
	"no emoji, no preamble. Output only the roast text."

// GeneratorGateway calls the chat-completions endpoint to produce a roast
// suggestion. One attempt per call; retrying is the caller's decision.
type GeneratorGateway struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeneratorGateway(endpoint, apiKey, model string) *GeneratorGateway {
	return &GeneratorGateway{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GeneratorGateway) Generate(ctx context.Context, freeform, subjectHandle string) (string, error) {
	prompt := fmt.Sprintf("Roast %s.", subjectHandle)
	if strings.TrimSpace(freeform) != "" {
		prompt += " Context about them: " + freeform
	}

	body, err := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": generatorSystemPrompt},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to build completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.ExternalServiceError{Service: "roast generator", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ExternalServiceError{
			Service: "roast generator",
			Err:     fmt.Errorf("completion endpoint returned status %d", resp.StatusCode),
		}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", domain.ExternalServiceError{Service: "roast generator", Err: err}
	}
	if len(result.Choices) == 0 {
		return "", domain.ExternalServiceError{
			Service: "roast generator",
			Err:     errors.New("completion returned no choices"),
		}
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ExternalServiceError{
			Service: "roast generator",
			Err:     errors.New("completion returned empty text"),
		}
	}
	return text, nil
}

var _ usecase.RoastGenerator = (*GeneratorGateway)(nil)
