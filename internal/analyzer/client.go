// Package analyzer holds clients for the upstream AI analysis services.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"freshplate/internal/models"
	"freshplate/internal/observability"
)

// AnalyzeRequest carries the inputs for a food analysis call.
type AnalyzeRequest struct {
	FoodName  string         `json:"food_name"`
	ImageData string         `json:"image_data,omitempty"` // base64, optional
	Profile   map[string]any `json:"profile,omitempty"`
}

// AnalyzeResult is the upstream vision service response for one scan.
type AnalyzeResult struct {
	FoodName    string           `json:"food_name"`
	Freshness   map[string]any   `json:"freshness"`
	Nutrition   json.RawMessage  `json:"nutrition"`
	Storage     []map[string]any `json:"storage"`
	Consumption []map[string]any `json:"consumption"`
	HealthRisks []map[string]any `json:"health_risk_factors"`
}

// GoalAdvice is the upstream advice service response for goal generation.
type GoalAdvice struct {
	Daily     models.Nutrients `json:"daily"`
	Reasoning string           `json:"reasoning"`
}

// InsightAdvice is a single generated insight.
type InsightAdvice struct {
	InsightType string `json:"insight_type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// ChatMessage is one prior turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries a chat message with its conversation history and the
// user context the assistant answers from.
type ChatRequest struct {
	Message string         `json:"message"`
	History []ChatMessage  `json:"history,omitempty"`
	Profile map[string]any `json:"profile,omitempty"`
}

// VisionClient analyzes food images and names.
type VisionClient interface {
	AnalyzeFood(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error)
}

// AdviceClient generates personalized goals, insights, and chat replies.
type AdviceClient interface {
	GenerateGoals(ctx context.Context, profile map[string]any) (*GoalAdvice, error)
	GenerateInsights(ctx context.Context, summary map[string]any) ([]InsightAdvice, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// HTTPVisionClient calls the vision analysis service over HTTP.
type HTTPVisionClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPVisionClient returns a vision client for the given base URL.
func NewHTTPVisionClient(baseURL, apiKey string) *HTTPVisionClient {
	return &HTTPVisionClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// AnalyzeFood submits a food for analysis and returns the structured result.
func (c *HTTPVisionClient) AnalyzeFood(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	var result AnalyzeResult
	if err := c.post(ctx, "/v1/analyze", "AnalyzeFood", req, &result); err != nil {
		return nil, err
	}
	if result.FoodName == "" {
		result.FoodName = req.FoodName
	}
	return &result, nil
}

func (c *HTTPVisionClient) post(ctx context.Context, path, method string, payload, out any) error {
	return doPost(ctx, c.client, "vision", c.baseURL+path, method, c.apiKey, payload, out)
}

// HTTPAdviceClient calls the advice generation service over HTTP.
type HTTPAdviceClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPAdviceClient returns an advice client for the given base URL.
func NewHTTPAdviceClient(baseURL, apiKey string) *HTTPAdviceClient {
	return &HTTPAdviceClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// GenerateGoals asks the advice service for personalized daily targets.
func (c *HTTPAdviceClient) GenerateGoals(ctx context.Context, profile map[string]any) (*GoalAdvice, error) {
	var advice GoalAdvice
	if err := doPost(ctx, c.client, "advice", c.baseURL+"/v1/goals", "GenerateGoals", c.apiKey, profile, &advice); err != nil {
		return nil, err
	}
	return &advice, nil
}

// GenerateInsights asks the advice service for insights based on recent intake.
func (c *HTTPAdviceClient) GenerateInsights(ctx context.Context, summary map[string]any) ([]InsightAdvice, error) {
	var out struct {
		Insights []InsightAdvice `json:"insights"`
	}
	if err := doPost(ctx, c.client, "advice", c.baseURL+"/v1/insights", "GenerateInsights", c.apiKey, summary, &out); err != nil {
		return nil, err
	}
	return out.Insights, nil
}

// Chat relays a user message, its history, and the profile context to the
// advice service's nutrition assistant.
func (c *HTTPAdviceClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	if err := doPost(ctx, c.client, "advice", c.baseURL+"/v1/chat", "Chat", c.apiKey, req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func doPost(ctx context.Context, client *http.Client, service, url, method, apiKey string, payload, out any) error {
	ctx, span := observability.GetTraceLayer().TraceUpstreamCall(ctx, service, method)
	defer span.End()

	start := time.Now()
	err := doPostRaw(ctx, client, url, apiKey, payload, out)
	observability.ObserveUpstream(service, start, err)
	if err != nil {
		span.RecordError(err)
		return models.NewUpstreamError(service, err)
	}
	return nil
}

func doPostRaw(ctx context.Context, client *http.Client, url, apiKey string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var svcErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBytes, &svcErr) == nil && svcErr.Error != "" {
			return fmt.Errorf("upstream error (%d): %s", resp.StatusCode, svcErr.Error)
		}
		preview := string(respBytes)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return fmt.Errorf("upstream error (%d): %s", resp.StatusCode, preview)
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
