package mail

import "context"

// FakeMailbox returns scripted messages. Each call to Unseen drains Messages,
// like a real mailbox marking them seen.
type FakeMailbox struct {
	Messages []Message

	// UnseenError, if set, is returned by Unseen.
	UnseenError error

	// Polls counts Unseen calls.
	Polls int
}

// Unseen returns and clears Messages.
func (f *FakeMailbox) Unseen(ctx context.Context) ([]Message, error) {
	f.Polls++
	if f.UnseenError != nil {
		return nil, f.UnseenError
	}
	msgs := f.Messages
	f.Messages = nil
	return msgs, nil
}
