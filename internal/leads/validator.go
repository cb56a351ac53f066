package leads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HoneypotField is the hidden form input bots tend to fill.
const HoneypotField = "website"

// RawSubmission is the untyped body as posted by the browser. Nothing in it is
// trusted until Validator.Validate returns.
type RawSubmission map[string]json.RawMessage

// ParseRaw decodes body into its untyped form. Anything but a JSON object is
// rejected with ErrInvalidBody.
func ParseRaw(body []byte) (RawSubmission, error) {
	var raw RawSubmission
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrInvalidBody
	}
	return raw, nil
}

// Honeypot reports whether the hidden field carries a truthy value.
func (r RawSubmission) Honeypot() bool {
	msg, ok := r[HoneypotField]
	if !ok {
		return false
	}
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return true
	}
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		return true
	}
}

// submissionForm is the canonical strict schema.
type submissionForm struct {
	FullName     string          `json:"fullName" validate:"required,min=2,max=100"`
	Email        string          `json:"email" validate:"required,max=254,email"`
	Company      string          `json:"company" validate:"required,min=2,max=100"`
	Stage        string          `json:"stage" validate:"required,oneof=exploring ready urgent"`
	Needs        []string        `json:"needs" validate:"required,min=1,max=10,dive,oneof=web-design web-dev ai-strategy seo ecommerce other"`
	Message      string          `json:"message" validate:"max=1000"`
	FormType     string          `json:"formType" validate:"required,oneof=analyze conversation"`
	UserLanguage string          `json:"user_language" validate:"omitempty,oneof=en es"`
	Website      json.RawMessage `json:"website"`
	PageSection  string          `json:"page_section" validate:"max=100"`
	CTALabel     string          `json:"cta_label" validate:"max=100"`
	UTMSource    string          `json:"utm_source" validate:"max=100"`
	UTMMedium    string          `json:"utm_medium" validate:"max=100"`
	UTMCampaign  string          `json:"utm_campaign" validate:"max=100"`
}

// formFields holds the exact json names of submissionForm. encoding/json
// matches keys case-insensitively, so the strict decode alone would accept
// "Website" or a second "FULLNAME".
var formFields = func() map[string]struct{} {
	t := reflect.TypeOf(submissionForm{})
	out := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
			out[name] = struct{}{}
		}
	}
	return out
}()

func (f *submissionForm) trim() {
	for _, s := range []*string{
		&f.FullName, &f.Email, &f.Company, &f.Stage, &f.Message, &f.FormType, &f.UserLanguage,
		&f.PageSection, &f.CTALabel, &f.UTMSource, &f.UTMMedium, &f.UTMCampaign,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// Validator applies the submission schema.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator that reports fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate strictly decodes raw and returns the normalized submission or a
// *ValidationError keyed by field.
func (v *Validator) Validate(raw RawSubmission) (Submission, error) {
	if unknown := unknownFields(raw); len(unknown) > 0 {
		return Submission{}, &ValidationError{Fields: unknown}
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return Submission{}, ErrInvalidBody
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.DisallowUnknownFields()
	var form submissionForm
	if err := dec.Decode(&form); err != nil {
		return Submission{}, decodeError(err)
	}
	form.trim()

	if err := v.validate.Struct(&form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Submission{}, fmt.Errorf("leads: validate: %w", err)
		}
		out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			name := baseField(fe.Field())
			if _, seen := out.Fields[name]; !seen {
				out.Fields[name] = fieldMessage(fe)
			}
		}
		return Submission{}, out
	}

	return normalize(form), nil
}

func normalize(form submissionForm) Submission {
	needs := make([]Need, len(form.Needs))
	for i, n := range form.Needs {
		needs[i] = Need(n)
	}
	intent := IntentConversation
	if form.FormType == "analyze" {
		intent = IntentAnalyzeProject
	}
	lang := LanguageEN
	if form.UserLanguage != "" {
		lang = Language(form.UserLanguage)
	}
	return Submission{
		FullName: form.FullName,
		Email:    strings.ToLower(form.Email),
		Company:  form.Company,
		Stage:    Stage(form.Stage),
		Needs:    needs,
		Intent:   intent,
		Message:  form.Message,
		Language: lang,
		Tracking: Tracking{
			PageSection: form.PageSection,
			CTALabel:    form.CTALabel,
			UTMSource:   form.UTMSource,
			UTMMedium:   form.UTMMedium,
			UTMCampaign: form.UTMCampaign,
		},
	}
}

func unknownFields(raw RawSubmission) map[string]string {
	var out map[string]string
	for key := range raw {
		if _, ok := formFields[key]; ok {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[key] = "Unrecognized field"
	}
	return out
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ValidationError{Fields: map[string]string{baseField(typeErr.Field): "Invalid type"}}
	}
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return &ValidationError{Fields: map[string]string{strings.Trim(name, `"`): "Unrecognized field"}}
	}
	return ErrInvalidBody
}

// baseField turns "needs[2]" or "needs.2" into "needs".
func baseField(field string) string {
	if i := strings.IndexAny(field, "[."); i > 0 {
		return field[:i]
	}
	return field
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email address"
	case "min":
		if isList {
			return fmt.Sprintf("Select at least %s option(s)", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("Select at most %s options", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Invalid value"
	}
}
