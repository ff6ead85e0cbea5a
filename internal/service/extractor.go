package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

const extractorSystemPrompt = "You are an insurance claim intake assistant. Always respond with a single valid JSON object and nothing else."

const extractorStrictSuffix = "\n\nIMPORTANT: your previous response was not valid JSON. Respond with ONLY the JSON object. No prose, no markdown fences, no explanations."

// EntityParser maps free-text claim descriptions to structured ParsedQuery
// values via the generative-text capability.
type EntityParser struct {
	chat       ChatClient
	retryLimit int
	timeout    time.Duration
}

// NewEntityParser creates an EntityParser with default retry and timeout
// settings.
func NewEntityParser(chat ChatClient) *EntityParser {
	return NewEntityParserWithConfig(chat, DefaultLLMRetryLimit, DefaultLLMTimeout)
}

// NewEntityParserWithConfig creates an EntityParser with explicit retry limit
// and per-call timeout.
func NewEntityParserWithConfig(chat ChatClient, retryLimit int, timeout time.Duration) *EntityParser {
	if retryLimit < 0 {
		retryLimit = 0
	}
	return &EntityParser{
		chat:       chat,
		retryLimit: retryLimit,
		timeout:    timeout,
	}
}

// Parse extracts structured claim fields from a raw query. Malformed
// responses are re-issued with a stricter instruction up to the retry limit;
// exhausting retries fails with an ExtractionError.
func (p *EntityParser) Parse(ctx context.Context, query string) (domain.ParsedQuery, error) {
	prompt := buildExtractionPrompt(query)

	var lastErr error
	for attempt := 0; attempt <= p.retryLimit; attempt++ {
		user := prompt
		if attempt > 0 {
			user += extractorStrictSuffix
		}

		response, err := completeWithTimeout(ctx, p.chat, p.timeout, extractorSystemPrompt, user)
		if err != nil {
			lastErr = err
			continue
		}

		parsed, err := parseExtractionResponse(response)
		if err != nil {
			lastErr = err
			continue
		}

		return parsed, nil
	}

	return domain.ParsedQuery{}, domain.NewDomainErrorWithCause(
		domain.ErrCodeExtraction,
		fmt.Sprintf("entity extraction failed after %d attempts", p.retryLimit+1),
		lastErr,
	)
}

func buildExtractionPrompt(query string) string {
	return fmt.Sprintf(`Extract structured claim attributes from the insurance query below.

QUERY:
%s

Respond with a JSON object of exactly this shape:
{
  "age": patient age in years or null,
  "gender": "male" or "female" or null,
  "procedure": "medical procedure requested" or null,
  "location": "treatment city" or null,
  "policy_duration_months": months the policy has been active or null,
  "is_emergency": true or false
}

Use null for anything the query does not state. Treat abbreviations like
"46M" as age 46, gender male. "is_emergency" is false unless the query
clearly describes an emergency.`, query)
}

// rawParsedQuery holds the untyped structured output before coercion.
type rawParsedQuery struct {
	Age                  any `json:"age"`
	Gender               any `json:"gender"`
	Procedure            any `json:"procedure"`
	Location             any `json:"location"`
	PolicyDurationMonths any `json:"policy_duration_months"`
	IsEmergency          any `json:"is_emergency"`
}

// parseExtractionResponse validates and coerces the capability output into a
// ParsedQuery. A missing JSON object or a non-object payload is a schema
// violation (retryable); numeric fields that fail to parse become nil.
func parseExtractionResponse(response string) (domain.ParsedQuery, error) {
	payload, err := extractJSON(response)
	if err != nil {
		return domain.ParsedQuery{}, err
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var raw rawParsedQuery
	if err := dec.Decode(&raw); err != nil {
		return domain.ParsedQuery{}, fmt.Errorf("malformed extraction payload: %w", err)
	}

	parsed := domain.ParsedQuery{
		Age:                  coerceInt(raw.Age),
		Procedure:            coerceString(raw.Procedure),
		Location:             coerceString(raw.Location),
		PolicyDurationMonths: coerceInt(raw.PolicyDurationMonths),
		IsEmergency:          coerceBool(raw.IsEmergency),
	}

	if g := domain.Gender(strings.ToLower(coerceString(raw.Gender))); domain.ValidGender(g) {
		parsed.Gender = &g
	}

	return parsed, nil
}

// coerceInt converts a loosely-typed JSON value to *int; unparseable values
// become nil rather than failing the whole extraction.
func coerceInt(v any) *int {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil && i >= 0 {
			return &i
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i >= 0 {
			return &i
		}
	}
	return nil
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}
