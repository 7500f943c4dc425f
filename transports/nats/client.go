package nats

import (
	"context"
	"io"
	"sync"

	"github.com/RobertWHurst/strand"
)

// Options configures a Client's codec calls.
type Options struct {
	EncodePlugins []strand.EncodePlugin
	DecodePlugins []strand.DecodePlugin
}

// Client sends and receives value streams for one named service.
type Client struct {
	serviceName    string
	transport      *Transport
	encodeOpts     *strand.EncodeOptions
	decodeOpts     *strand.DecodeOptions
	handlerChansMu sync.RWMutex
	handlerChans   map[string]map[*Binding]chan *Message
}

// NewClient registers serviceName on the transport and returns a client for
// it. opts may be nil.
func NewClient(serviceName string, transport *Transport, opts *Options) *Client {
	c := &Client{
		serviceName:  serviceName,
		transport:    transport,
		handlerChans: make(map[string]map[*Binding]chan *Message),
	}
	if opts != nil {
		c.encodeOpts = &strand.EncodeOptions{Plugins: opts.EncodePlugins}
		c.decodeOpts = &strand.DecodeOptions{Plugins: opts.DecodePlugins}
	}
	transport.handle(c.serviceName, c.handleStream)
	return c
}

// Service returns a handle for sending to a remote service.
func (c *Client) Service(remoteServiceName string) *ServiceClient {
	return &ServiceClient{
		client:            c,
		remoteServiceName: remoteServiceName,
	}
}

// Bind subscribes to value streams arriving on subject.
func (c *Client) Bind(subject string) *Binding {
	return newBinding(c, subject)
}

// Close drops the client's transport subscription.
func (c *Client) Close() error {
	return c.transport.Close()
}

// handleStream decodes one inbound stream and fans the message out to the
// subject's bindings. The root value is available as soon as frame 0 has
// been read; deferreds inside it settle as the rest of the stream arrives.
func (c *Client) handleStream(subject, sourceServiceName, replySubject string, reader io.Reader) {
	msg := &Message{
		sourceServiceName: sourceServiceName,
		replySubject:      replySubject,
		client:            c,
	}
	msg.stream, msg.err = strand.Decode(context.Background(), reader, c.decodeOpts)

	c.handlerChansMu.RLock()
	defer c.handlerChansMu.RUnlock()
	for _, ch := range c.handlerChans[subject] {
		ch <- msg
	}
}

// sendValue encodes v through a pipe into a chunked transport stream. The
// encoder keeps the stream open until every deferred inside v has settled
// and been framed.
func (c *Client) sendValue(serviceName, subject, replySubject string, v strand.Value) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(strand.Encode(context.Background(), pw, v, c.encodeOpts))
	}()
	return c.transport.send(serviceName, subject, c.serviceName, replySubject, pr)
}
