package nats

// Binding is a subscription to value streams on one subject. Messages can
// be consumed one at a time with Next or handler-style with To.
type Binding struct {
	client      *Client
	subject     string
	handlerChan chan *Message
}

func newBinding(client *Client, subject string) *Binding {
	b := &Binding{
		client:      client,
		subject:     subject,
		handlerChan: make(chan *Message, 100),
	}

	client.handlerChansMu.Lock()
	defer client.handlerChansMu.Unlock()
	if _, ok := client.handlerChans[subject]; !ok {
		client.handlerChans[subject] = make(map[*Binding]chan *Message)
	}
	client.handlerChans[subject][b] = b.handlerChan

	return b
}

// Next blocks until the next message arrives and returns it.
func (b *Binding) Next() *Message {
	return <-b.handlerChan
}

// To spawns a goroutine that calls handler for each message until the
// binding is unbound.
func (b *Binding) To(handler func(msg *Message)) *Binding {
	go func() {
		for msg := range b.handlerChan {
			handler(msg)
		}
	}()
	return b
}

// Unbind unsubscribes from the subject and frees the binding's resources.
// Goroutines spawned by To exit once Unbind has been called.
func (b *Binding) Unbind() {
	b.client.handlerChansMu.Lock()
	defer b.client.handlerChansMu.Unlock()
	delete(b.client.handlerChans[b.subject], b)
	close(b.handlerChan)
}
