package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"go-orders/pkg/logger"
)

type fakeMessages struct {
	sent   []*twilioapi.CreateMessageParams
	create func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

func (f *fakeMessages) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.sent = append(f.sent, params)
	return f.create(params)
}

func newTestMessenger(create func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)) (*TwilioMessenger, *fakeMessages) {
	messages := &fakeMessages{create: create}
	m := newTwilioMessenger(TwilioConfig{
		AccountSID:    "AC123",
		AuthToken:     "token",
		From:          "+14155238886",
		ChannelPrefix: "whatsapp:",
		Timeout:       time.Second,
	}, messages, logger.NewNop())
	return m, messages
}

func TestTwilioMessenger_Send(t *testing.T) {
	sid := "SM123"
	m, messages := newTestMessenger(func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
		return &twilioapi.ApiV2010Message{Sid: &sid}, nil
	})

	ok, err := m.Send(context.Background(), "+919800000001", "Your payment was received.")

	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, messages.sent, 1)
	params := messages.sent[0]
	assert.Equal(t, "whatsapp:+14155238886", *params.From)
	assert.Equal(t, "whatsapp:+919800000001", *params.To)
	assert.Equal(t, "Your payment was received.", *params.Body)
}

func TestTwilioMessenger_Rejected(t *testing.T) {
	m, _ := newTestMessenger(func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
		return nil, &twclient.TwilioRestError{Status: 400, Code: 21211, Message: "Invalid 'To' Phone Number"}
	})

	ok, err := m.Send(context.Background(), "+919800000001", "hello")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTwilioMessenger_ProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unavailable", err: &twclient.TwilioRestError{Status: 503, Message: "Service Unavailable"}},
		{name: "transport", err: errors.New("connection reset by peer")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMessenger(func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
				return nil, tt.err
			})

			ok, err := m.Send(context.Background(), "+919800000001", "hello")

			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestTwilioMessenger_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	m, _ := newTestMessenger(func(*twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
		<-release
		return nil, nil
	})
	m.cfg.Timeout = 20 * time.Millisecond

	ok, err := m.Send(context.Background(), "+919800000001", "hello")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
}

func TestLogMessenger_Send(t *testing.T) {
	ok, err := NewLogMessenger(logger.NewNop()).Send(context.Background(), "+919800000001", "hello")

	assert.NoError(t, err)
	assert.True(t, ok)
}
