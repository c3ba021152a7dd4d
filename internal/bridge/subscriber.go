package bridge

import "sync"

// DefaultBuffer is the per-subscriber message buffer.
const DefaultBuffer = 64

// subscriber is a buffered outbound queue. Send never blocks: when the
// buffer is full the oldest message is dropped.
type subscriber struct {
	msgs      chan Message
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex // serializes Send against close
	dropped   uint64
}

func newSubscriber(size int) *subscriber {
	if size < 1 {
		size = DefaultBuffer
	}
	return &subscriber{
		msgs: make(chan Message, size),
		done: make(chan struct{}),
	}
}

func (s *subscriber) send(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.msgs <- msg:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-s.msgs:
			s.dropped++
		default:
		}
		select {
		case s.msgs <- msg:
		default:
			s.dropped++
		}
	}
}

// closed reports whether close was called.
func (s *subscriber) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// close stops delivery and closes the channel. Safe to call multiple times.
func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.done)
		close(s.msgs)
	})
}
