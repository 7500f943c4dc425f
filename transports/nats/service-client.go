package nats

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/RobertWHurst/strand"
)

// ServiceClient sends value streams to a specific remote service. It is
// created by Client.Service.
type ServiceClient struct {
	client            *Client
	remoteServiceName string
}

// Send streams a fire-and-forget value to the remote service.
func (s *ServiceClient) Send(subject string, v strand.Value) error {
	return s.client.sendValue(s.remoteServiceName, subject, "", v)
}

// Request streams a value and waits for a reply with a default 30-second
// timeout. The returned Message exposes the reply's decoded stream.
func (s *ServiceClient) Request(subject string, v strand.Value) *Message {
	return s.RequestWithTimeout(subject, v, 30*time.Second)
}

// RequestWithTimeout is Request with a custom timeout.
func (s *ServiceClient) RequestWithTimeout(subject string, v strand.Value, timeout time.Duration) *Message {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.RequestWithCtx(ctx, subject, v)
}

// RequestWithCtx streams a value and waits for a reply until ctx is done.
func (s *ServiceClient) RequestWithCtx(ctx context.Context, subject string, v strand.Value) *Message {
	replySubject := generateReplySubject()

	binding := s.client.Bind(replySubject)
	defer binding.Unbind()

	if err := s.client.sendValue(s.remoteServiceName, subject, replySubject, v); err != nil {
		return &Message{err: err}
	}

	select {
	case <-ctx.Done():
		return &Message{err: ctx.Err()}
	case msg := <-binding.handlerChan:
		return msg
	}
}

var replySubjectChars = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_")

func generateReplySubject() string {
	b := make([]rune, 32)
	for i := range b {
		b[i] = replySubjectChars[rand.N(len(replySubjectChars))]
	}
	return string(b)
}
