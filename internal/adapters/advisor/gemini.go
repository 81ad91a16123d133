// Package advisor talks to the generative text service that suggests
// diagnoses and describes medications.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

var (
	ErrNotConfigured = errors.New("advisory service is not configured")
	ErrEmptyResponse = errors.New("advisory service returned no text")
)

// GeminiClient calls the generateContent endpoint of the Gemini API.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

var _ ports.AdvisoryClient = (*GeminiClient)(nil)

func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration, cb *gobreaker.CircuitBreaker) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

func (c *GeminiClient) SuggestDiagnosis(ctx context.Context, symptoms, vitalsSummary, medicalHistory string) (string, error) {
	var b strings.Builder
	b.WriteString("You are assisting a clinic doctor. Based on the patient information below, ")
	b.WriteString("list the most likely diagnoses with a one-line rationale for each. ")
	b.WriteString("This is decision support only; the doctor makes the final diagnosis.\n\n")
	fmt.Fprintf(&b, "Symptoms: %s\n", symptoms)
	fmt.Fprintf(&b, "Vitals: %s\n", vitalsSummary)
	if strings.TrimSpace(medicalHistory) != "" {
		fmt.Fprintf(&b, "Medical history: %s\n", medicalHistory)
	}
	return c.generate(ctx, b.String())
}

func (c *GeminiClient) MedicationInfo(ctx context.Context, medicationName string) (string, error) {
	prompt := fmt.Sprintf(
		"Give concise reference information about the medication %q: what it is used for, "+
			"typical adult dosage, common side effects, and important interactions or warnings.",
		medicationName)
	return c.generate(ctx, prompt)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.call(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (c *GeminiClient) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("advisory service responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode advisory response: %w", err)
	}

	var text strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(text.String()), nil
}
