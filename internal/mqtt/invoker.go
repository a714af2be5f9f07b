package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dchest/uniuri"
	"github.com/joperezr/SmartHomePi/internal/logging"
)

var (
	ErrTimeout = errors.New("timed out waiting for device response")
	ErrClosed  = errors.New("invoker is closed")
)

type response struct {
	status int
	body   []byte
	err    error
}

// Invoker sends direct-method requests to one device and matches the
// responses by request id.
type Invoker struct {
	transport Transport
	topics    Topics

	mu      sync.Mutex
	pending map[string]chan response
	started bool
	closed  bool
}

func NewInvoker(transport Transport, topics Topics) *Invoker {
	return &Invoker{
		transport: transport,
		topics:    topics,
		pending:   make(map[string]chan response),
	}
}

// Start subscribes to the device's responses. Invoke calls it lazily.
func (i *Invoker) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return ErrClosed
	}
	if i.started {
		return nil
	}
	if err := i.transport.Subscribe(i.topics.ResponseFilter(), i.handleResponse); err != nil {
		return err
	}
	i.started = true
	return nil
}

// Close stops listening for responses and fails every call still waiting
// with ErrClosed. Later calls do nothing.
func (i *Invoker) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	for rid, ch := range i.pending {
		select {
		case ch <- response{err: ErrClosed}:
		default:
		}
		delete(i.pending, rid)
	}
	started := i.started
	i.started = false
	i.mu.Unlock()

	if !started {
		return nil
	}
	return i.transport.Unsubscribe(i.topics.ResponseFilter())
}

// Invoke publishes a request and blocks until the matching response, the
// timeout or ctx ends. It never retries.
func (i *Invoker) Invoke(ctx context.Context, method string, payload []byte, timeout time.Duration) (int, []byte, error) {
	if err := i.Start(); err != nil {
		if errors.Is(err, ErrClosed) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("subscribe to responses: %w", err)
	}

	rid := uniuri.New()
	ch := make(chan response, 1)

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return 0, nil, ErrClosed
	}
	i.pending[rid] = ch
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		delete(i.pending, rid)
		i.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := i.transport.Publish(i.topics.Request(method, rid), payload); err != nil {
		return 0, nil, fmt.Errorf("invoke %s: %w", method, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return 0, nil, fmt.Errorf("invoke %s: %w", method, res.err)
		}
		return res.status, res.body, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("invoke %s after %s: %w", method, timeout, ErrTimeout)
		}
		return 0, nil, fmt.Errorf("invoke %s: %w", method, ctx.Err())
	}
}

func (i *Invoker) handleResponse(topic string, payload []byte) {
	status, rid, err := i.topics.ParseResponse(topic)
	if err != nil {
		logging.Warn("Ignoring message: %s", err)
		return
	}

	i.mu.Lock()
	ch, ok := i.pending[rid]
	i.mu.Unlock()

	if !ok {
		logging.Debug("Dropping late or unknown response %s", rid)
		return
	}

	select {
	case ch <- response{status: status, body: payload}:
	default:
	}
}
