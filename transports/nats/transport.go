// Package nats carries strand frame streams over NATS. An outbound stream
// opens with a handshake request naming the source service and reply
// subject; the receiver answers with a dedicated data subject, and the
// sender streams the encoded frames to it as msgpack-framed chunks. Streams
// of any size cross the broker without being held in memory whole.
package nats

import (
	"errors"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// SendTimeout is the maximum time to wait for a handshake acknowledgment.
const SendTimeout = 5 * time.Second

// ChunkSize is the size of each chunk when streaming frame data.
const ChunkSize = 1024 * 16

// chunkIdleTimeout bounds the wait for the next chunk of an open stream.
// Deferred resolutions can trail the root frame by however long the sender
// takes to settle them.
const chunkIdleTimeout = 5 * time.Minute

// Transport moves frame streams between services over a NATS connection.
type Transport struct {
	NatsConnection  *nats.Conn
	Subscription    *nats.Subscription
	SubscriptionErr error
}

// Send is the handshake envelope that opens a stream.
type Send struct {
	SourceServiceName string `msgpack:"sourceServiceName"`
	ReplySubject      string `msgpack:"replySubject"`
	Subject           string `msgpack:"subject"`
}

// SendAck is the handshake response carrying the data subject the sender
// should stream chunks to.
type SendAck struct {
	DataSubject string `msgpack:"dataSubject"`
}

// Chunk is one piece of a streamed frame sequence.
type Chunk struct {
	Index int    `msgpack:"index"`
	Data  []byte `msgpack:"data,omitempty"`
	Error string `msgpack:"error,omitempty"`
	IsEOF bool   `msgpack:"isEof,omitempty"`
}

// NewTransport creates a transport over an established NATS connection.
func NewTransport(natsConnection *nats.Conn) *Transport {
	return &Transport{NatsConnection: natsConnection}
}

// send opens a stream to serviceName and copies reader to its data subject
// in chunks until EOF. A read failure is forwarded to the receiver as an
// error chunk so the remote decoder fails instead of stalling.
func (t *Transport) send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
	if t.SubscriptionErr != nil {
		return t.SubscriptionErr
	}

	sendBuf, err := msgpack.Marshal(&Send{
		SourceServiceName: sourceServiceName,
		ReplySubject:      replySubject,
		Subject:           subject,
	})
	if err != nil {
		return err
	}

	sendAckMsg, err := t.NatsConnection.Request(namespace(serviceName), sendBuf, SendTimeout)
	if err != nil {
		return err
	}

	var sendAck SendAck
	if err := msgpack.Unmarshal(sendAckMsg.Data, &sendAck); err != nil {
		return err
	}

	buf := make([]byte, ChunkSize)
	index := 0
	for {
		n, err := reader.Read(buf)
		isEOF := errors.Is(err, io.EOF)
		if err != nil && !isEOF {
			if chunkBuf, mErr := msgpack.Marshal(&Chunk{Index: index, Error: err.Error()}); mErr == nil {
				t.NatsConnection.Publish(sendAck.DataSubject, chunkBuf)
			}
			return err
		}

		chunkBuf, err := msgpack.Marshal(&Chunk{
			Index: index,
			Data:  buf[:n],
			IsEOF: isEOF,
		})
		if err != nil {
			return err
		}

		if err := t.NatsConnection.Publish(sendAck.DataSubject, chunkBuf); err != nil {
			return err
		}

		if isEOF {
			return nil
		}
		index += 1
	}
}

// errReader hands a handshake failure to the stream handler as a reader
// that fails on first read.
type errReader struct {
	err error
}

func (r *errReader) Read(p []byte) (n int, err error) {
	return 0, r.err
}

// handle subscribes to serviceName's handshake subject. For each opened
// stream it acks with a fresh data subject, reassembles the incoming chunks
// into a pipe, and hands the read end to the handler.
func (t *Transport) handle(serviceName string, handler func(subject, sourceServiceName, replySubject string, reader io.Reader)) {
	subscription, err := t.NatsConnection.Subscribe(namespace(serviceName), func(natsMsg *nats.Msg) {
		var send Send
		if err := msgpack.Unmarshal(natsMsg.Data, &send); err != nil {
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &errReader{err: err})
			return
		}

		dataSubject := nats.NewInbox()

		ackBuf, err := msgpack.Marshal(&SendAck{DataSubject: dataSubject})
		if err != nil {
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &errReader{err: err})
			return
		}

		dataSubscription, err := t.NatsConnection.SubscribeSync(dataSubject)
		if err != nil {
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &errReader{err: err})
			return
		}

		if err := natsMsg.Respond(ackBuf); err != nil {
			dataSubscription.Unsubscribe()
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &errReader{err: err})
			return
		}

		pr, pw := io.Pipe()

		go func() {
			defer dataSubscription.Unsubscribe()
			defer pw.Close()

			for {
				dataMsg, err := dataSubscription.NextMsg(chunkIdleTimeout)
				if err != nil {
					pw.CloseWithError(err)
					return
				}

				var chunk Chunk
				if err := msgpack.Unmarshal(dataMsg.Data, &chunk); err != nil {
					pw.CloseWithError(err)
					return
				}

				if chunk.Error != "" {
					pw.CloseWithError(errors.New(chunk.Error))
					return
				}

				if _, err := pw.Write(chunk.Data); err != nil {
					pw.CloseWithError(err)
					return
				}

				if chunk.IsEOF {
					return
				}
			}
		}()

		handler(send.Subject, send.SourceServiceName, send.ReplySubject, pr)
	})
	if err != nil {
		t.SubscriptionErr = err
	} else {
		t.Subscription = subscription
	}
}

// Close drops the handshake subscription.
func (t *Transport) Close() error {
	if t.Subscription != nil {
		return t.Subscription.Unsubscribe()
	}
	return nil
}
