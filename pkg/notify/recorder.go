package notify

import (
	"context"
	"sync"
)

// Message is a dispatched notification captured by Recorder.
type Message struct {
	TemplateID string
	Recipient  string
	Data       map[string]any
}

// Recorder keeps dispatched messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent sends record the message and then return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Recorder) Send(_ context.Context, templateID, recipient string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	r.messages = append(r.messages, Message{TemplateID: templateID, Recipient: recipient, Data: copied})
	return r.err
}

// Messages returns a snapshot of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent message sent with templateID.
func (r *Recorder) Last(templateID string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].TemplateID == templateID {
			return r.messages[i], true
		}
	}
	return Message{}, false
}

// Reset drops recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}
