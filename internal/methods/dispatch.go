// Package methods maps direct-method names to local handlers.
package methods

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

const (
	StatusOK             = http.StatusOK
	StatusInternalError  = http.StatusInternalServerError
	StatusNotImplemented = http.StatusNotImplemented
)

var (
	ErrEmptyName      = errors.New("method name is empty")
	ErrNilHandler     = errors.New("method handler is nil")
	ErrAlreadyDefined = errors.New("method already registered")
)

// Handler executes one invocation. A nil response means "no body".
type Handler func(payload []byte) (status int, response []byte)

// Table is a concurrency safe method name -> Handler mapping.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	onPanic  func(method string, v interface{})
}

func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// OnPanic installs a hook that sees handler panics before they are re-raised.
func (t *Table) OnPanic(fn func(method string, v interface{})) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPanic = fn
}

func (t *Table) Register(name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if h == nil {
		return fmt.Errorf("%s: %w", name, ErrNilHandler)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.handlers[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrAlreadyDefined)
	}
	t.handlers[name] = h
	return nil
}

func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.handlers[name]
	return exists
}

// Names returns the registered method names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type notImplemented struct {
	Message string `json:"message"`
}

// Dispatch runs the handler registered for name. Unknown methods get a 501
// with a small JSON explanation.
func (t *Table) Dispatch(name string, payload []byte) (int, []byte) {
	t.mu.RLock()
	h, ok := t.handlers[name]
	onPanic := t.onPanic
	t.mu.RUnlock()

	if !ok {
		body, _ := json.Marshal(notImplemented{Message: fmt.Sprintf("method %q is not implemented", name)})
		return StatusNotImplemented, body
	}

	if onPanic != nil {
		defer func() {
			if v := recover(); v != nil {
				onPanic(name, v)
				panic(v)
			}
		}()
	}

	return h(payload)
}
