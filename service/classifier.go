package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thakurdishanttt/Project-DocuLens/config"
	"github.com/thakurdishanttt/Project-DocuLens/pkg/logger"
)

// classifierSampleLimit caps how much document text is sent to the model.
const classifierSampleLimit = 2000

// ClassifierService labels document text with one of the known document
// types using a generative model.
type ClassifierService struct {
	config     *config.ClassifierConfig
	httpClient *http.Client
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Classification is the outcome of classifying a document.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func NewClassifierService(cfg *config.ClassifierConfig) *ClassifierService {
	return &ClassifierService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Classify asks the model to pick one of categories for the given text.
// A malformed model reply yields the category "unknown" rather than an error.
func (s *ClassifierService) Classify(ctx context.Context, text string, categories []string) (*Classification, error) {
	if len(text) > classifierSampleLimit {
		text = text[:classifierSampleLimit]
	}

	prompt := fmt.Sprintf(`Analyze this document text and classify it into one of these categories: %s.
If the document does not match any category, respond with "unknown".
Respond with only: category|confidence|reason
Format: category|confidence|reason

Document text:
%s`, strings.Join(categories, ", "), text)

	reply, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := parseClassification(reply)
	if result.Category == "unknown" && result.Reason == "invalid classifier response format" {
		logger.Warn(ctx, "unparseable classifier reply", "reply", reply)
	}
	return result, nil
}

func parseClassification(reply string) *Classification {
	parts := strings.SplitN(strings.TrimSpace(reply), "|", 3)
	if len(parts) != 3 {
		return &Classification{
			Category: "unknown",
			Reason:   "invalid classifier response format",
		}
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		confidence = 0
	}

	return &Classification{
		Category:   strings.ToLower(strings.TrimSpace(parts[0])),
		Confidence: confidence,
		Reason:     strings.TrimSpace(parts[2]),
	}
}

func (s *ClassifierService) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.config.APIURL, s.config.Model, s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Error != nil {
		return "", fmt.Errorf("classifier API error: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("classifier returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
