package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	resp *rest.Response
	err  error
	sent []*mail.SGMailV3
}

func (s *stubClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	return s.resp, s.err
}

func validMessage() Message {
	return Message{
		ToEmail:   "customer@example.ae",
		ToName:    "Customer",
		Subject:   "Order Confirmation - #ORD-1",
		PlainText: "thanks",
		HTML:      "<p>thanks</p>",
	}
}

func TestNewSelectsSenderByConfig(t *testing.T) {
	_, isLog := New(config.EmailConfig{}, logger.Nop()).(*LogSender)
	require.True(t, isLog)

	_, isSendGrid := New(config.EmailConfig{SendgridAPIKey: "SG.x", FromAddress: "noreply@x.ae"}, logger.Nop()).(*SendGridSender)
	require.True(t, isSendGrid)
}

func TestSendGridSenderSuccess(t *testing.T) {
	client := &stubClient{resp: &rest.Response{StatusCode: 202}}
	sender := &SendGridSender{client: client, from: mail.NewEmail("Pharmacy", "noreply@x.ae")}

	require.NoError(t, sender.Send(context.Background(), validMessage()))
	require.Len(t, client.sent, 1)
	require.Equal(t, "Order Confirmation - #ORD-1", client.sent[0].Subject)
	require.Equal(t, "noreply@x.ae", client.sent[0].From.Address)
}

func TestSendGridSenderErrors(t *testing.T) {
	from := mail.NewEmail("Pharmacy", "noreply@x.ae")

	sender := &SendGridSender{client: &stubClient{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}}, from: from}
	err := sender.Send(context.Background(), validMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")

	sender = &SendGridSender{client: &stubClient{err: errors.New("dial tcp")}, from: from}
	require.Error(t, sender.Send(context.Background(), validMessage()))

	client := &stubClient{resp: &rest.Response{StatusCode: 202}}
	sender = &SendGridSender{client: client, from: from}
	msg := validMessage()
	msg.ToEmail = ""
	require.Error(t, sender.Send(context.Background(), msg))
	require.Empty(t, client.sent)
}

func TestLogSender(t *testing.T) {
	sender := &LogSender{logg: logger.Nop()}
	require.NoError(t, sender.Send(context.Background(), validMessage()))
	require.Error(t, sender.Send(context.Background(), Message{ToEmail: "a@b.ae"}))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab...", truncate("abcdef", 2))
}
