package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	lastInput *sesv2.SendEmailInput
	err       error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendBuildsMessage(t *testing.T) {
	fake := &fakeSES{}
	s := &SESSender{client: fake, fromEmail: "outreach@ivy.ai", fromName: "Ivy", replyTo: "replies@ivy.ai"}

	res, err := s.Send(context.Background(), "ana@example.com", "Quick question", "<p>Hi Ana</p>")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)

	in := fake.lastInput
	require.NotNil(t, in)
	assert.Equal(t, "Ivy <outreach@ivy.ai>", *in.FromEmailAddress)
	assert.Equal(t, []string{"ana@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Quick question", *in.Content.Simple.Subject.Data)
	assert.Equal(t, []string{"replies@ivy.ai"}, in.ReplyToAddresses)
}

func TestSendProviderRejection(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	s := &SESSender{client: fake, fromEmail: "outreach@ivy.ai", fromName: "Ivy"}

	res, err := s.Send(context.Background(), "ana@example.com", "s", "b")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "throttled")
}
