package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"spadoc/pkg/logger"
)

func TestBuild(t *testing.T) {
	raw := string(Build(Message{
		From:    "site@example.com",
		To:      "owner@example.com",
		ReplyTo: "customer@example.com",
		Subject: "New Service Request - Repair",
		HTML:    "<p>Hello</p>",
	}))

	assert.Contains(t, raw, "From: site@example.com\r\n")
	assert.Contains(t, raw, "To: owner@example.com\r\n")
	assert.Contains(t, raw, "Reply-To: customer@example.com\r\n")
	assert.Contains(t, raw, "Subject: New Service Request - Repair\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>Hello</p>"))
}

func TestBuildStripsHeaderInjection(t *testing.T) {
	raw := string(Build(Message{
		From:    "a@example.com",
		To:      "b@example.com",
		Subject: "Hi\r\nBcc: victim@example.com",
	}))
	assert.NotContains(t, raw, "\r\nBcc:")
}

func TestNewWithoutCredentialsIsNop(t *testing.T) {
	s := New(Config{Host: "smtp.gmail.com", Port: 587}, logger.NewNop())
	_, ok := s.(*NopSender)
	assert.True(t, ok)

	assert.NoError(t, s.Send(context.Background(), Message{To: "owner@example.com", Subject: "x"}))
	assert.ErrorIs(t, s.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: 1, Username: "u", Password: "p"}, logger.NewNop())
	err := s.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPSenderDialFailure(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: 1, Username: "u", Password: "p"}, logger.NewNop())
	err := s.Send(context.Background(), Message{To: "b@example.com"})
	assert.Error(t, err)
}
