package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thakurdishanttt/Project-DocuLens/config"
	"github.com/thakurdishanttt/Project-DocuLens/model"
)

// ExtractorService pulls structured fields out of document text, guided by
// a contract schema.
type ExtractorService struct {
	config     *config.ExtractorConfig
	httpClient *http.Client
}

// ExtractRequest represents the request to run a schema-guided extraction
type ExtractRequest struct {
	Text   string       `json:"text"`
	Schema model.Schema `json:"schema"`
}

// ExtractResponse represents the extraction response
type ExtractResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data"`
}

func NewExtractorService(cfg *config.ExtractorConfig) *ExtractorService {
	return &ExtractorService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Extract returns the field values named by schema, as found in text.
func (s *ExtractorService) Extract(ctx context.Context, text string, schema model.Schema) (map[string]any, error) {
	reqBody := ExtractRequest{
		Text:   text,
		Schema: schema,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/extract", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result ExtractResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("extractor API error: %s", result.Message)
	}

	return result.Data, nil
}
