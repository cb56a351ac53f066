package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "leads@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "leads@example.com",
	}, nil)

	require.NotNil(t, sender)
	assert.Equal(t, defaultFromName, sender.fromName)
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "leads@example.com",
		FromName:  "Custom Name",
	}, nil)

	require.NotNil(t, sender)
	assert.Equal(t, "Custom Name", sender.fromName)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{client: nil}

	_, err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	assert.Error(t, err)
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	id, err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "stub-"))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "leads@example.com"}, nil)
	require.NotNil(t, sender)

	id, err := sender.Send(context.Background(), EmailMessage{
		To:      "admin@example.com",
		ReplyTo: "lead@example.com",
		Subject: "New lead",
		Body:    "text",
		HTML:    "<p>html</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	assert.Equal(t, "Whatamatters Leads <leads@example.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"admin@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, []string{"lead@example.com"}, api.input.ReplyToAddresses)
	assert.Equal(t, "<p>html</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
	assert.Equal(t, "text", aws.ToString(api.input.Content.Simple.Body.Text.Data))
}

func TestSESSender_SendError(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	sender := NewSESSender(api, SESConfig{FromEmail: "leads@example.com"}, nil)

	_, err := sender.Send(context.Background(), EmailMessage{To: "admin@example.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
