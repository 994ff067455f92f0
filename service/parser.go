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
	"github.com/thakurdishanttt/Project-DocuLens/pkg/logger"
)

// ParserService turns an uploaded document into plain text via the
// asynchronous parsing API: submit a job, then poll until it is done.
type ParserService struct {
	config     *config.ParserConfig
	httpClient *http.Client
}

// ParseJobRequest represents the request to create a parse job
type ParseJobRequest struct {
	URL          string `json:"url"`
	ResultFormat string `json:"result_format,omitempty"`
}

// ParseJobResponse represents the response from job creation
type ParseJobResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		JobID string `json:"job_id"`
	} `json:"data"`
}

// ParseJobStatusResponse represents the job status query response
type ParseJobStatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		JobID    string `json:"job_id"`
		State    string `json:"state"` // pending, running, done, failed
		Text     string `json:"text,omitempty"`
		ErrorMsg string `json:"err_msg,omitempty"`
	} `json:"data"`
}

func NewParserService(cfg *config.ParserConfig) *ParserService {
	return &ParserService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Parse submits fileURL for parsing and polls until the job finishes,
// returning the extracted text.
func (s *ParserService) Parse(ctx context.Context, fileURL string) (string, error) {
	job, err := s.CreateJob(ctx, fileURL)
	if err != nil {
		return "", err
	}

	log := logger.WithContext(ctx)
	log.Info("parse job created", "job_id", job.Data.JobID)

	interval := time.Duration(s.config.PollSeconds) * time.Second
	for i := 0; i < s.config.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		status, err := s.GetJobStatus(ctx, job.Data.JobID)
		if err != nil {
			return "", err
		}

		switch status.Data.State {
		case "done":
			return status.Data.Text, nil
		case "failed":
			return "", fmt.Errorf("parse job failed: %s", status.Data.ErrorMsg)
		default:
			log.Debug("parse job pending", "job_id", job.Data.JobID, "state", status.Data.State)
		}
	}

	return "", fmt.Errorf("parse job %s did not finish after %d polls", job.Data.JobID, s.config.MaxPolls)
}

// CreateJob creates a new parse job
func (s *ParserService) CreateJob(ctx context.Context, fileURL string) (*ParseJobResponse, error) {
	reqBody := ParseJobRequest{
		URL:          fileURL,
		ResultFormat: s.config.ResultFormat,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/parse/job", bytes.NewBuffer(jsonData))
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

	var result ParseJobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("parser API error: %s", result.Message)
	}

	return &result, nil
}

// GetJobStatus queries the status of a parse job
func (s *ParserService) GetJobStatus(ctx context.Context, jobID string) (*ParseJobStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/parse/job/%s", s.config.APIURL, jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
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

	var result ParseJobStatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("parser API error: %s", result.Message)
	}

	return &result, nil
}
