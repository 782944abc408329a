// Package classifier estimates how much of a company's revenue comes
// from space infrastructure, using the Anthropic messages API. Results
// feed the space-revenue factor of the weighting engine.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
	"github.com/futureeconomy/indices/pkg/redis"
)

const (
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
	maxTokens        = 2000
)

// Classification is the assessment for one company.
type Classification struct {
	Ticker          string   `json:"ticker"`
	CompanyName     string   `json:"company_name"`
	IsSpaceRelated  bool     `json:"is_space_related"`
	SpaceRevenuePct float64  `json:"space_revenue_pct"`
	Confidence      string   `json:"confidence"` // high, medium, low
	Segments        []string `json:"segments"`
	Reasoning       string   `json:"reasoning"`
	RawResponse     string   `json:"-"`
}

// CompanyInfo is the input for one classification request.
type CompanyInfo struct {
	Ticker      string
	Name        string
	Description string
	Context     string // optional additional context
}

// Classifier calls the Anthropic API and parses its JSON verdicts.
type Classifier struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cache      *redis.Cache
	apiKey     string
	baseURL    string
	model      string
}

// New creates a classifier. The cache is optional; when present,
// results are reused for a week so repeated runs do not re-bill the API.
func New(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) (*Classifier, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}

	return &Classifier{
		httpClient: httpClient,
		logger:     log,
		cache:      cache,
		apiKey:     cfg.Anthropic.APIKey,
		baseURL:    cfg.Anthropic.BaseURL,
		model:      cfg.Anthropic.Model,
	}, nil
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// classificationData matches the JSON object the model is asked to return.
type classificationData struct {
	IsSpaceRelated  bool     `json:"is_space_related"`
	SpaceRevenuePct float64  `json:"space_revenue_pct"`
	Confidence      string   `json:"confidence"`
	Segments        []string `json:"segments"`
	Reasoning       string   `json:"reasoning"`
}

// ClassifyCompany assesses one company. API errors are returned;
// malformed model output degrades to an unclassifiable result instead.
func (c *Classifier) ClassifyCompany(ctx context.Context, company CompanyInfo) (*Classification, error) {
	if c.cache != nil {
		var cached Classification
		found, err := c.cache.Get(ctx, redis.ClassificationKey(company.Ticker), &cached)
		if err == nil && found {
			c.logger.WithField("ticker", company.Ticker).Debug("Classification cache hit")
			return &cached, nil
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": company.Ticker,
		"name":   company.Name,
	}).Debug("Classifying company")

	request := anthropicRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0, // deterministic
		Messages: []message{
			{Role: "user", Content: buildPrompt(company)},
		},
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	resp, err := c.httpClient.PostJSONWithHeaders(ctx, c.baseURL+messagesPath, request, headers)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResponse anthropicResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse anthropic response: %w", err)
	}

	if len(apiResponse.Content) == 0 {
		return nil, fmt.Errorf("anthropic response contained no content")
	}

	result := c.parseVerdict(company.Ticker, company.Name, apiResponse.Content[0].Text)

	if c.cache != nil {
		if err := c.cache.Set(ctx, redis.ClassificationKey(company.Ticker), result, redis.TTLClassification); err != nil {
			c.logger.WithError(err).Warn("Failed to cache classification")
		}
	}

	return result, nil
}

// parseVerdict extracts the JSON object from the model's reply. Extra
// prose around the object is tolerated; unparseable replies degrade to
// an unclassifiable result.
func (c *Classifier) parseVerdict(ticker, name, responseText string) *Classification {
	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")

	if start < 0 || end <= start {
		c.logger.WithField("ticker", ticker).Warn("No JSON found in classifier response")
		return unclassifiable(ticker, name, "No JSON found in AI response", responseText)
	}

	var data classificationData
	if err := json.Unmarshal([]byte(responseText[start:end+1]), &data); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to parse classifier response")
		return unclassifiable(ticker, name, fmt.Sprintf("Error parsing AI response: %v", err), responseText)
	}

	return &Classification{
		Ticker:          ticker,
		CompanyName:     name,
		IsSpaceRelated:  data.IsSpaceRelated,
		SpaceRevenuePct: data.SpaceRevenuePct,
		Confidence:      data.Confidence,
		Segments:        data.Segments,
		Reasoning:       data.Reasoning,
		RawResponse:     responseText,
	}
}

func unclassifiable(ticker, name, reason, raw string) *Classification {
	return &Classification{
		Ticker:      ticker,
		CompanyName: name,
		Confidence:  "low",
		Segments:    []string{},
		Reasoning:   reason,
		RawResponse: raw,
	}
}

// ClassifyBatch classifies companies sequentially. Per-company failures
// become unclassifiable results so one bad ticker cannot sink the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, companies []CompanyInfo) []Classification {
	results := make([]Classification, 0, len(companies))

	for i, company := range companies {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   company.Ticker,
			"progress": fmt.Sprintf("%d/%d", i+1, len(companies)),
		}).Info("Classifying")

		result, err := c.ClassifyCompany(ctx, company)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", company.Ticker).Warn("Classification failed")
			result = unclassifiable(company.Ticker, company.Name, fmt.Sprintf("Error: %v", err), "")
		}

		results = append(results, *result)
	}

	return results
}
