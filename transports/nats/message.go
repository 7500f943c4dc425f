package nats

import "github.com/RobertWHurst/strand"

// Message is one inbound value stream plus the metadata needed to reply.
type Message struct {
	sourceServiceName string
	replySubject      string
	stream            *strand.Decoded
	client            *Client
	err               error
}

// Source returns the name of the service that sent the message.
func (m *Message) Source() string {
	return m.sourceServiceName
}

// Value returns the hydrated root value. Deferreds inside it are
// placeholders that settle as the rest of the stream arrives.
func (m *Message) Value() (strand.Value, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream.Value, nil
}

// Stream returns the underlying decode handle, for callers that need the
// stream's Done signal or terminal error.
func (m *Message) Stream() (*strand.Decoded, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

// Reply streams v back to the sender on its reply subject.
func (m *Message) Reply(v strand.Value) error {
	if m.err != nil {
		return m.err
	}
	return m.client.sendValue(m.sourceServiceName, m.replySubject, "", v)
}
