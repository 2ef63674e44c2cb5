package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"go-orders/pkg/logger"
)

// TwilioConfig configures the Twilio Messages API client
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// ChannelPrefix is prepended to both numbers, e.g. "whatsapp:"
	ChannelPrefix string
	Timeout       time.Duration
}

type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioMessenger sends messages through the Twilio REST API
type TwilioMessenger struct {
	cfg      TwilioConfig
	messages messageCreator
	log      *logger.Logger
}

// NewTwilioMessenger creates a new Twilio messenger
func NewTwilioMessenger(cfg TwilioConfig, log *logger.Logger) *TwilioMessenger {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioMessenger(cfg, client.Api, log)
}

func newTwilioMessenger(cfg TwilioConfig, messages messageCreator, log *logger.Logger) *TwilioMessenger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioMessenger{cfg: cfg, messages: messages, log: log}
}

type sendReply struct {
	msg *twilioapi.ApiV2010Message
	err error
}

// Send implements notifications.Messenger.
// A 4xx answer means the provider refused the message and yields (false, nil).
func (m *TwilioMessenger) Send(ctx context.Context, recipient, text string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(m.cfg.ChannelPrefix + m.cfg.From)
	params.SetTo(m.cfg.ChannelPrefix + recipient)
	params.SetBody(text)

	done := make(chan sendReply, 1)
	go func() {
		msg, err := m.messages.CreateMessage(params)
		done <- sendReply{msg: msg, err: err}
	}()

	var reply sendReply
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("failed to send message: %w", ctx.Err())
	case reply = <-done:
	}

	if reply.err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(reply.err, &restErr) && restErr.Status >= 400 && restErr.Status < 500 {
			m.log.WithContext(ctx).Warn("message rejected by provider",
				zap.Int("status", restErr.Status),
				zap.Int("code", restErr.Code),
				zap.String("recipient", recipient),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to send message: %w", reply.err)
	}

	if reply.msg != nil && reply.msg.Sid != nil {
		m.log.WithContext(ctx).Debug("message accepted", zap.String("sid", *reply.msg.Sid))
	}
	return true, nil
}

// LogMessenger writes messages to the log instead of delivering them
type LogMessenger struct {
	log *logger.Logger
}

// NewLogMessenger creates a messenger for development environments
func NewLogMessenger(log *logger.Logger) *LogMessenger {
	return &LogMessenger{log: log}
}

// Send implements notifications.Messenger
func (m *LogMessenger) Send(ctx context.Context, recipient, text string) (bool, error) {
	m.log.WithContext(ctx).Info("outbound message",
		zap.String("recipient", recipient),
		zap.String("text", text),
	)
	return true, nil
}
