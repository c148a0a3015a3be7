package core

import "fmt"

// Stream is a finite, pull-based sequence of progressively extended partial
// responses. Each element is the cumulative response so far, not a delta; the
// sequence terminates once the full response has been produced and is not
// restartable. The producer does work only when Next is called (or, for
// channel-backed streams, when the consumer drains the channel); cancellation
// is simply the consumer ceasing to call Next.
type Stream struct {
	next  func() (string, bool)
	errFn func() error
	done  bool
	last  string
	err   error
}

// NewStream wraps a generator function. The function must eventually return
// ok=false; after that Next never calls it again.
func NewStream(next func() (string, bool)) *Stream {
	return &Stream{next: next}
}

// NewStreamWithError wraps a generator function plus an error source consulted
// once the generator is exhausted. A non-nil result marks the sequence as
// truncated: the partials seen so far do not add up to a full response.
func NewStreamWithError(next func() (string, bool), errFn func() error) *Stream {
	return &Stream{next: next, errFn: errFn}
}

// StreamFromChannel adapts a channel of cumulative partials. The stream ends
// when the channel is closed.
func StreamFromChannel(ch <-chan string) *Stream {
	return NewStream(func() (string, bool) {
		v, ok := <-ch
		return v, ok
	})
}

// StreamFromChannelWithError is StreamFromChannel for producers that may fail
// mid-sequence. The producer must store its error before closing the channel;
// the close is the synchronization point that makes the write visible here.
func StreamFromChannelWithError(ch <-chan string, errFn func() error) *Stream {
	return NewStreamWithError(func() (string, bool) {
		v, ok := <-ch
		return v, ok
	}, errFn)
}

// CumulativeStream expands a final response into its rune-prefix partials:
// "Hi!" yields "H", "Hi", "Hi!". Used by modules that simulate streaming.
func CumulativeStream(final string) *Stream {
	runes := []rune(final)
	i := 0
	return NewStream(func() (string, bool) {
		if i >= len(runes) {
			return "", false
		}
		i++
		return string(runes[:i]), true
	})
}

// Next returns the next cumulative partial. ok is false once the sequence has
// ended; subsequent calls keep returning false.
func (s *Stream) Next() (string, bool) {
	if s.done {
		return "", false
	}
	v, ok := s.next()
	if !ok {
		s.done = true
		if s.errFn != nil {
			s.err = s.errFn()
		}
		return "", false
	}
	s.last = v
	return v, true
}

// Err reports whether the sequence ended early because the producer failed.
// It is meaningful once Next has returned ok=false; nil means the last
// partial seen is the full response.
func (s *Stream) Err() error {
	return s.err
}

// Text drains any remaining elements and returns the final response.
func (s *Stream) Text() string {
	for {
		if _, ok := s.Next(); !ok {
			return s.last
		}
	}
}

// AsText coerces an action result to its final text: strings pass through and
// streams are drained, failing when the stream ended early. Other types are an
// error; callers needing them should type-assert the raw result instead.
func AsText(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case *Stream:
		text := r.Text()
		if err := r.Err(); err != nil {
			return "", err
		}
		return text, nil
	default:
		return "", fmt.Errorf("result of type %T is not textual", v)
	}
}
