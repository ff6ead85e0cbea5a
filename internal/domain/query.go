package domain

// Gender is the claimant gender extracted from a query, when stated.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ValidGender reports whether g is a recognized gender value.
func ValidGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}

// ParsedQuery is the structured form of a free-text claim query. Optional
// fields are nil when the query does not state them; IsEmergency defaults to
// false.
type ParsedQuery struct {
	Age                  *int    `json:"age"`
	Gender               *Gender `json:"gender"`
	Procedure            string  `json:"procedure"`
	Location             string  `json:"location"`
	PolicyDurationMonths *int    `json:"policy_duration_months"`
	IsEmergency          bool    `json:"is_emergency"`
}

// MissingFields lists the claim attributes the query did not state.
func (p ParsedQuery) MissingFields() []string {
	var missing []string
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.Gender == nil {
		missing = append(missing, "gender")
	}
	if p.Procedure == "" {
		missing = append(missing, "procedure")
	}
	if p.Location == "" {
		missing = append(missing, "location")
	}
	if p.PolicyDurationMonths == nil {
		missing = append(missing, "policy_duration_months")
	}
	return missing
}

// RetrievedClause references an indexed chunk together with its similarity to
// the query, in [0,1].
type RetrievedClause struct {
	ChunkID    string  `json:"chunk_id"`
	Section    string  `json:"section"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Confidence is a coarse categorical estimate of decision reliability.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ValidConfidence reports whether c is a recognized confidence level.
func ValidConfidence(c Confidence) bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Decision is the synthesized approve/reject outcome for a claim query.
// Invariant: Amount is non-nil iff Approved is true, and RelevantClauses is a
// subset of the sections present in the retrieved clause set.
type Decision struct {
	Approved        bool       `json:"approved"`
	Amount          *int       `json:"amount"`
	Reasoning       string     `json:"reasoning"`
	RelevantClauses []string   `json:"relevant_clauses"`
	Confidence      Confidence `json:"confidence"`
	RiskFactors     []string   `json:"risk_factors"`
}

// QueryResult is the complete output of one pipeline run. Immutable once
// produced.
type QueryResult struct {
	Query                 string            `json:"query"`
	ParsedQuery           ParsedQuery       `json:"parsed_query"`
	Decision              Decision          `json:"decision"`
	RetrievedClauses      []RetrievedClause `json:"retrieved_clauses"`
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
}

// AnalyticsSnapshot is a consistent point-in-time view of outcome counters.
type AnalyticsSnapshot struct {
	TotalQueries             int64   `json:"total_queries"`
	ApprovedCount            int64   `json:"approved_count"`
	RejectedCount            int64   `json:"rejected_count"`
	AvgProcessingTimeSeconds float64 `json:"avg_processing_time_seconds"`
	CacheHits                int64   `json:"cache_hits"`
	CacheSize                int     `json:"cache_size"`
}
