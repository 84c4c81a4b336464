// internal/workers/proposal/notify-proposal-ready/handler_test.go
package notifyproposalready

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
)

type fakeEmail struct {
	err  error
	to   string
	body string
}

func (f *fakeEmail) SendTextEmail(_ context.Context, _, to, _, body string) error {
	f.to = to
	f.body = body
	return f.err
}

type fakeSMS struct {
	err   error
	phone string
}

func (f *fakeSMS) PublishSMS(_ context.Context, phoneNumber, _ string) error {
	f.phone = phoneNumber
	return f.err
}

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "proposals@example.com",
	}
}

func testInput() *Input {
	return &Input{
		RunID:          "run-1",
		RFPID:          "RFP-1",
		Status:         "Complete",
		GrandTotal:     330.0,
		RecipientEmail: "buyer@example.com",
		RecipientPhone: "+15550001111",
	}
}

func TestExecute_SendsBothChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	h := NewHandler(createTestConfig(), email, sms, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, output.EmailSent)
	assert.True(t, output.SMSSent)
	assert.Equal(t, "buyer@example.com", email.to)
	assert.Contains(t, email.body, "run-1")
	assert.Contains(t, email.body, "330.00")
	assert.Equal(t, "+15550001111", sms.phone)
}

func TestExecute_ChannelFailureIsNotFatal(t *testing.T) {
	email := &fakeEmail{err: assert.AnError}
	sms := &fakeSMS{}
	h := NewHandler(createTestConfig(), email, sms, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)

	assert.False(t, output.EmailSent)
	assert.True(t, output.SMSSent)
}

func TestExecute_DisabledChannelsSkipped(t *testing.T) {
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	email := &fakeEmail{}
	sms := &fakeSMS{}
	h := NewHandler(cfg, email, sms, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Empty(t, sms.phone)
}

func TestExecute_MissingRunID(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeEmail{}, &fakeSMS{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestExecute_NoRecipients(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeEmail{}, &fakeSMS{}, logger.NewTestLogger(t))

	input := testInput()
	input.RecipientEmail = ""
	input.RecipientPhone = ""

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.EmailSent)
	assert.False(t, output.SMSSent)
}
