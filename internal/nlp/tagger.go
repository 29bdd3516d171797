package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LocationTagger finds location-entity spans in free text, returned in order
// of appearance. Duplicate mentions yield duplicate spans.
type LocationTagger interface {
	TagLocations(ctx context.Context, text string) ([]string, error)
}

// HTTPTagger calls an external NER model server that tags entities in
// Ukrainian text. The server is expected at startup; per-call transport
// failures drop the affected message only.
type HTTPTagger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTagger(baseURL string, timeout time.Duration) *HTTPTagger {
	return &HTTPTagger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type tagResponse struct {
	Entities []tagEntity `json:"entities"`
}

type tagEntity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

func (t *HTTPTagger) TagLocations(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("error encoding tag request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/tag", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	var locs []string
	for _, ent := range data.Entities {
		if ent.Type == "LOC" {
			locs = append(locs, ent.Text)
		}
	}

	return locs, nil
}

// Ping verifies the model server is reachable. Run once at startup: a missing
// model server must fail the process, not individual messages.
func (t *HTTPTagger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("NER model server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("NER model server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
