package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

const reasonerSystemPrompt = "You are an expert insurance claim analyst. Always respond with a single valid JSON object and nothing else."

const reasonerStrictSuffix = "\n\nIMPORTANT: your previous response was not valid JSON. Respond with ONLY the JSON object. No prose, no markdown fences, no explanations."

// DecisionReasoner synthesizes an approve/reject decision from parsed claim
// attributes and retrieved policy clauses.
type DecisionReasoner struct {
	chat       ChatClient
	retryLimit int
	timeout    time.Duration
}

// NewDecisionReasoner creates a DecisionReasoner with default retry and
// timeout settings.
func NewDecisionReasoner(chat ChatClient) *DecisionReasoner {
	return NewDecisionReasonerWithConfig(chat, DefaultLLMRetryLimit, DefaultLLMTimeout)
}

// NewDecisionReasonerWithConfig creates a DecisionReasoner with explicit
// retry limit and per-call timeout.
func NewDecisionReasonerWithConfig(chat ChatClient, retryLimit int, timeout time.Duration) *DecisionReasoner {
	if retryLimit < 0 {
		retryLimit = 0
	}
	return &DecisionReasoner{
		chat:       chat,
		retryLimit: retryLimit,
		timeout:    timeout,
	}
}

// Decide invokes the generative capability with a prompt constrained to the
// supplied clauses and returns a validated Decision. Field-level invariant
// violations are corrected by dropping the offending fields; structural parse
// failures retry and then fail with a DecisionError.
func (r *DecisionReasoner) Decide(ctx context.Context, parsed domain.ParsedQuery, clauses []domain.RetrievedClause) (domain.Decision, error) {
	prompt := buildDecisionPrompt(parsed, clauses)

	var lastErr error
	for attempt := 0; attempt <= r.retryLimit; attempt++ {
		user := prompt
		if attempt > 0 {
			user += reasonerStrictSuffix
		}

		response, err := completeWithTimeout(ctx, r.chat, r.timeout, reasonerSystemPrompt, user)
		if err != nil {
			lastErr = err
			continue
		}

		decision, err := parseDecisionResponse(response)
		if err != nil {
			lastErr = err
			continue
		}

		return sanitizeDecision(decision, clauses), nil
	}

	return domain.Decision{}, domain.NewDomainErrorWithCause(
		domain.ErrCodeDecision,
		fmt.Sprintf("decision synthesis failed after %d attempts", r.retryLimit+1),
		lastErr,
	)
}

func buildDecisionPrompt(parsed domain.ParsedQuery, clauses []domain.RetrievedClause) string {
	var b strings.Builder

	b.WriteString("Analyze the following insurance claim and decide whether it should be approved, reasoning ONLY from the policy clauses provided.\n\n")

	b.WriteString("CLAIM DETAILS:\n")
	fmt.Fprintf(&b, "- Patient Age: %s\n", formatOptionalInt(parsed.Age))
	fmt.Fprintf(&b, "- Gender: %s\n", formatOptionalGender(parsed.Gender))
	fmt.Fprintf(&b, "- Medical Procedure: %s\n", orUnspecified(parsed.Procedure))
	fmt.Fprintf(&b, "- Treatment Location: %s\n", orUnspecified(parsed.Location))
	fmt.Fprintf(&b, "- Policy Duration: %s months\n", formatOptionalInt(parsed.PolicyDurationMonths))
	fmt.Fprintf(&b, "- Emergency Case: %s\n", yesNo(parsed.IsEmergency))

	if missing := parsed.MissingFields(); len(missing) > 0 {
		fmt.Fprintf(&b, "\nMISSING INFORMATION: %s. Treat missing critical details as a reason to lower confidence.\n", strings.Join(missing, ", "))
	}

	b.WriteString("\nRELEVANT POLICY CLAUSES:\n")
	if len(clauses) == 0 {
		b.WriteString("(no supporting clauses were found in the policy document)\n")
	}
	for _, clause := range clauses {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", clause.Section, clause.Text)
	}

	b.WriteString(`ANALYSIS INSTRUCTIONS:
1. Check age eligibility against the clauses.
2. Verify policy duration requirements; emergency procedures are covered immediately.
3. Confirm the procedure is covered by a clause.
4. Assess location coverage.
5. Identify any exclusions or special conditions.

DECISION CRITERIA:
- If ALL requirements are met, approve.
- If ANY critical requirement fails, reject.
- If the clauses provide insufficient information, reject with an explanation.

OUTPUT FORMAT (must be valid JSON):
{
  "approved": true or false,
  "amount": estimated claim amount or null,
  "reasoning": "clear explanation referencing specific policy sections",
  "relevant_clauses": ["section names used in the decision"],
  "confidence": "high" or "medium" or "low",
  "risk_factors": ["concerns, missing information, or edge cases"]
}

IMPORTANT RULES:
- Reference only the clause sections listed above in relevant_clauses.
- Reject when the procedure is not explicitly covered.
- Waive waiting-period requirements for emergency cases.
- Use "high" confidence only when all information is clear.
- Use "low" confidence when critical information is missing.`)

	return b.String()
}

// rawDecision holds the untyped structured output before validation.
type rawDecision struct {
	Approved        any      `json:"approved"`
	Amount          any      `json:"amount"`
	Reasoning       any      `json:"reasoning"`
	RelevantClauses []string `json:"relevant_clauses"`
	Confidence      any      `json:"confidence"`
	RiskFactors     []string `json:"risk_factors"`
}

// parseDecisionResponse validates the structural shape of the capability
// output. Approved and reasoning are required; everything else is coerced.
func parseDecisionResponse(response string) (domain.Decision, error) {
	payload, err := extractJSON(response)
	if err != nil {
		return domain.Decision{}, err
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var raw rawDecision
	if err := dec.Decode(&raw); err != nil {
		return domain.Decision{}, fmt.Errorf("malformed decision payload: %w", err)
	}

	approved, ok := raw.Approved.(bool)
	if !ok {
		return domain.Decision{}, fmt.Errorf("decision payload missing boolean approved field")
	}

	reasoning := coerceString(raw.Reasoning)
	if reasoning == "" {
		return domain.Decision{}, fmt.Errorf("decision payload missing reasoning")
	}

	return domain.Decision{
		Approved:        approved,
		Amount:          coerceInt(raw.Amount),
		Reasoning:       reasoning,
		RelevantClauses: raw.RelevantClauses,
		Confidence:      domain.Confidence(strings.ToLower(coerceString(raw.Confidence))),
		RiskFactors:     raw.RiskFactors,
	}, nil
}

// sanitizeDecision enforces the amount/approved and clause-subset invariants
// by dropping offending fields instead of failing.
func sanitizeDecision(d domain.Decision, clauses []domain.RetrievedClause) domain.Decision {
	if !d.Approved {
		d.Amount = nil
	} else if d.Amount == nil {
		zero := 0
		d.Amount = &zero
		d.RiskFactors = append(d.RiskFactors, "approved amount not estimated by analysis")
	}

	sections := make(map[string]struct{}, len(clauses))
	for _, clause := range clauses {
		sections[clause.Section] = struct{}{}
	}
	kept := make([]string, 0, len(d.RelevantClauses))
	for _, name := range d.RelevantClauses {
		if _, ok := sections[name]; ok {
			kept = append(kept, name)
		}
	}
	d.RelevantClauses = kept

	if !domain.ValidConfidence(d.Confidence) {
		d.Confidence = domain.ConfidenceLow
	}

	if d.RiskFactors == nil {
		d.RiskFactors = []string{}
	}

	return d
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "Not specified"
	}
	return fmt.Sprintf("%d", *v)
}

func formatOptionalGender(g *domain.Gender) string {
	if g == nil {
		return "Not specified"
	}
	return string(*g)
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
