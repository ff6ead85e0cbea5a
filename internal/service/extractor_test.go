package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

// MockChatClient is a mock for the generative-text capability.
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

// scriptedChat returns canned responses in order, recording each call.
type scriptedChat struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedChat) Complete(ctx context.Context, system, user string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, user)

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return s.responses[len(s.responses)-1], nil
}

func TestEntityParser_Parse_Success(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"age": 46, "gender": "male", "procedure": "knee surgery", "location": "Pune", "policy_duration_months": 3, "is_emergency": false}`,
	}}
	parser := NewEntityParser(chat)

	parsed, err := parser.Parse(context.Background(), "46M, knee surgery in Pune, 3-month policy")
	require.NoError(t, err)

	require.NotNil(t, parsed.Age)
	assert.Equal(t, 46, *parsed.Age)
	require.NotNil(t, parsed.Gender)
	assert.Equal(t, domain.GenderMale, *parsed.Gender)
	assert.Equal(t, "knee surgery", parsed.Procedure)
	assert.Equal(t, "Pune", parsed.Location)
	require.NotNil(t, parsed.PolicyDurationMonths)
	assert.Equal(t, 3, *parsed.PolicyDurationMonths)
	assert.False(t, parsed.IsEmergency)
	assert.Equal(t, 1, chat.calls)
}

func TestEntityParser_Parse_ProseWrappedJSON(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		"Here is the extraction you asked for:\n" +
			`{"age": 30, "gender": "female", "procedure": "appendectomy", "location": null, "policy_duration_months": null, "is_emergency": true}` +
			"\nLet me know if you need anything else.",
	}}
	parser := NewEntityParser(chat)

	parsed, err := parser.Parse(context.Background(), "30F emergency appendectomy")
	require.NoError(t, err)

	require.NotNil(t, parsed.Age)
	assert.Equal(t, 30, *parsed.Age)
	assert.True(t, parsed.IsEmergency)
	assert.Empty(t, parsed.Location)
}

func TestEntityParser_Parse_RetriesWithStricterPrompt(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		"I cannot produce JSON right now, sorry.",
		`{"age": null, "gender": null, "procedure": "cataract surgery", "location": "Delhi", "policy_duration_months": 12, "is_emergency": false}`,
	}}
	parser := NewEntityParserWithConfig(chat, 2, time.Second)

	parsed, err := parser.Parse(context.Background(), "cataract surgery in Delhi, 1 year policy")
	require.NoError(t, err)

	assert.Equal(t, "cataract surgery", parsed.Procedure)
	assert.Nil(t, parsed.Age)
	assert.Equal(t, 2, chat.calls)
	assert.NotContains(t, chat.prompts[0], "previous response was not valid JSON")
	assert.Contains(t, chat.prompts[1], "previous response was not valid JSON")
}

func TestEntityParser_Parse_ExhaustsRetries(t *testing.T) {
	chat := &scriptedChat{responses: []string{"garbage", "more garbage", "still garbage"}}
	parser := NewEntityParserWithConfig(chat, 2, time.Second)

	parsed, err := parser.Parse(context.Background(), "knee surgery in Pune")
	require.Error(t, err)
	assert.Equal(t, domain.ParsedQuery{}, parsed)
	assert.Equal(t, 3, chat.calls)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeExtraction, derr.Code)
}

func TestEntityParser_Parse_CapabilityErrorsCountAgainstBudget(t *testing.T) {
	boom := errors.New("capability timeout")
	chat := &scriptedChat{
		responses: []string{"", "", ""},
		errs:      []error{boom, boom, boom},
	}
	parser := NewEntityParserWithConfig(chat, 2, time.Second)

	_, err := parser.Parse(context.Background(), "knee surgery in Pune")
	require.Error(t, err)
	assert.Equal(t, 3, chat.calls)
	assert.ErrorIs(t, err, boom)
}

func TestParseExtractionResponse_NumericCoercion(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantAge *int
	}{
		{"number", `{"age": 46}`, intPtr(46)},
		{"numeric string", `{"age": "46"}`, intPtr(46)},
		{"unparseable string", `{"age": "forty-six"}`, nil},
		{"negative", `{"age": -3}`, nil},
		{"null", `{"age": null}`, nil},
		{"wrong type", `{"age": {"value": 46}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseExtractionResponse(tt.payload)
			require.NoError(t, err)
			if tt.wantAge == nil {
				assert.Nil(t, parsed.Age)
			} else {
				require.NotNil(t, parsed.Age)
				assert.Equal(t, *tt.wantAge, *parsed.Age)
			}
		})
	}
}

func TestParseExtractionResponse_InvalidGenderBecomesNil(t *testing.T) {
	parsed, err := parseExtractionResponse(`{"gender": "unknown", "procedure": "surgery"}`)
	require.NoError(t, err)
	assert.Nil(t, parsed.Gender)
}

func TestParseExtractionResponse_NoJSON(t *testing.T) {
	_, err := parseExtractionResponse("no structured content here")
	assert.ErrorIs(t, err, errNoJSON)
}

func intPtr(v int) *int {
	return &v
}
