package sheets

import "context"

// FakeAppender records appended rows for test assertions.
type FakeAppender struct {
	// Rows contains every row appended, in order.
	Rows [][]any

	// Calls counts Append invocations.
	Calls int

	// AppendError, if set, is returned by Append and no rows are recorded.
	AppendError error
}

// Append records rows.
func (f *FakeAppender) Append(ctx context.Context, rows [][]any) error {
	f.Calls++
	if f.AppendError != nil {
		return f.AppendError
	}
	f.Rows = append(f.Rows, rows...)
	return nil
}
