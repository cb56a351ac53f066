package leads

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"fullName": "  Al  ",
	"email": " Ada@Example.COM ",
	"company": "Co",
	"stage": "urgent",
	"needs": ["seo", "web-dev"],
	"formType": "analyze",
	"user_language": "en",
	"message": "  hi there  ",
	"utm_source": "newsletter"
}`

func validate(t *testing.T, body string) (Submission, error) {
	t.Helper()
	raw, err := ParseRaw([]byte(body))
	require.NoError(t, err)
	return NewValidator().Validate(raw)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateNormalizes(t *testing.T) {
	sub, err := validate(t, validBody)
	require.NoError(t, err)

	assert.Equal(t, "Al", sub.FullName)
	assert.Equal(t, "ada@example.com", sub.Email)
	assert.Equal(t, StageUrgent, sub.Stage)
	assert.Equal(t, []Need{NeedSEO, NeedWebDev}, sub.Needs)
	assert.Equal(t, "seo, web-dev", sub.NeedsString())
	assert.Equal(t, IntentAnalyzeProject, sub.Intent)
	assert.Equal(t, "analyze", sub.FormType())
	assert.Equal(t, "hi there", sub.Message)
	assert.Equal(t, LanguageEN, sub.Language)
	assert.Equal(t, "newsletter", sub.Tracking.UTMSource)
}

func TestValidateDefaultsLanguageAndConversationIntent(t *testing.T) {
	sub, err := validate(t, `{"fullName":"Al","email":"a@b.com","company":"Co","stage":"ready","needs":["other"],"formType":"conversation"}`)
	require.NoError(t, err)

	assert.Equal(t, LanguageEN, sub.Language)
	assert.Equal(t, IntentConversation, sub.Intent)
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		field   string
		message string
	}{
		{
			name:    "empty needs",
			mutate:  func(b string) string { return strings.Replace(b, `["seo", "web-dev"]`, `[]`, 1) },
			field:   "needs",
			message: "Select at least 1 option(s)",
		},
		{
			name:    "unknown need",
			mutate:  func(b string) string { return strings.Replace(b, `"web-dev"`, `"plumbing"`, 1) },
			field:   "needs",
			message: "Must be one of: web-design, web-dev, ai-strategy, seo, ecommerce, other",
		},
		{
			name:    "short name after trim",
			mutate:  func(b string) string { return strings.Replace(b, `"  Al  "`, `" A "`, 1) },
			field:   "fullName",
			message: "Must be at least 2 characters",
		},
		{
			name:    "bad email",
			mutate:  func(b string) string { return strings.Replace(b, `" Ada@Example.COM "`, `"not-an-email"`, 1) },
			field:   "email",
			message: "Invalid email address",
		},
		{
			name:    "bad stage",
			mutate:  func(b string) string { return strings.Replace(b, `"urgent"`, `"someday"`, 1) },
			field:   "stage",
			message: "Must be one of: exploring, ready, urgent",
		},
		{
			name:    "bad language",
			mutate:  func(b string) string { return strings.Replace(b, `"user_language": "en"`, `"user_language": "fr"`, 1) },
			field:   "user_language",
			message: "Must be one of: en, es",
		},
		{
			name:    "missing company",
			mutate:  func(b string) string { return strings.Replace(b, `"company": "Co",`, ``, 1) },
			field:   "company",
			message: "Required",
		},
		{
			name:    "long message",
			mutate:  func(b string) string { return strings.Replace(b, `"  hi there  "`, `"`+strings.Repeat("x", 1001)+`"`, 1) },
			field:   "message",
			message: "Must be at most 1000 characters",
		},
		{
			name:    "wrong type",
			mutate:  func(b string) string { return strings.Replace(b, `"company": "Co"`, `"company": 42`, 1) },
			field:   "company",
			message: "Invalid type",
		},
		{
			name:    "unknown field",
			mutate:  func(b string) string { return strings.Replace(b, `"company": "Co",`, `"company": "Co", "phone": "555",`, 1) },
			field:   "phone",
			message: "Unrecognized field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate(t, tt.mutate(validBody))
			fields := fieldErrors(t, err)
			assert.Equal(t, tt.message, fields[tt.field], "fields: %v", fields)
		})
	}
}

func TestValidateOneMessagePerField(t *testing.T) {
	_, err := validate(t, `{"fullName":"Al","email":"a@b.com","company":"Co","stage":"ready","needs":["x","y","z"],"formType":"analyze"}`)

	fields := fieldErrors(t, err)
	assert.Len(t, fields, 1)
	assert.Contains(t, fields, "needs")
}

func TestValidateAcceptsFalsyHoneypot(t *testing.T) {
	for _, v := range []string{`""`, `false`, `0`, `null`} {
		body := strings.Replace(validBody, `"company": "Co",`, `"company": "Co", "website": `+v+`,`, 1)
		raw, err := ParseRaw([]byte(body))
		require.NoError(t, err)
		assert.False(t, raw.Honeypot(), v)

		_, err = NewValidator().Validate(raw)
		assert.NoError(t, err, v)
	}
}

func TestParseRawRejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `"text"`, `42`, `{"a":`} {
		_, err := ParseRaw([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidBody, body)
	}
}

func TestHoneypotTruthiness(t *testing.T) {
	tests := map[string]bool{
		`{}`:                       false,
		`{"website":""}`:           false,
		`{"website":null}`:         false,
		`{"website":false}`:        false,
		`{"website":0}`:            false,
		`{"website":"x"}`:          true,
		`{"website":true}`:         true,
		`{"website":1}`:            true,
		`{"website":[]}`:           true,
		`{"website":{"a":1}}`:      true,
		`{"website":"http://bot"}`: true,
	}
	for body, want := range tests {
		raw, err := ParseRaw([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, want, raw.Honeypot(), body)
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"needs": "Required", "email": "Required"}}
	assert.Equal(t, "leads: invalid submission: email: Required; needs: Required", err.Error())
}

func TestValidateRejectsCaseVariantKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"duplicate name in upper case", `"FULLNAME": "Mallory",`},
		{"honeypot with capital letter", `"Website": "http://spam.example",`},
		{"email in upper case", `"EMAIL": "x@y.com",`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(validBody, `"company": "Co",`, `"company": "Co", `+tt.key, 1)
			_, err := validate(t, body)

			fields := fieldErrors(t, err)
			key := strings.Trim(strings.SplitN(tt.key, ":", 2)[0], `"`)
			assert.Equal(t, "Unrecognized field", fields[key], "fields: %v", fields)
		})
	}
}
