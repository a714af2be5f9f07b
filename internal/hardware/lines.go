// Package hardware binds the agent to its relay output lines and its
// environmental sensor through periph.io.
package hardware

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var (
	ErrLineNotFound = errors.New("gpio line not found")
	ErrUnknownLine  = errors.New("no line mapped to id")
	ErrLinesClosed  = errors.New("output lines are closed")
)

// DefaultBulbPins is the relay wiring of the reference board.
var DefaultBulbPins = map[int]string{
	1: "GPIO17",
	2: "GPIO27",
	3: "GPIO22",
}

// Lines owns a fixed set of output lines addressed by small integer ids.
type Lines struct {
	mu     sync.Mutex
	pins   map[int]gpio.PinOut
	idle   gpio.Level
	closed bool
}

// OpenLines resolves every named line through the gpio registry and drives it
// to the idle level.
func OpenLines(names map[int]string, idle gpio.Level) (*Lines, error) {
	pins := make(map[int]gpio.PinOut, len(names))
	for id, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("line %d (%s): %w", id, name, ErrLineNotFound)
		}
		pins[id] = p
	}
	return NewLines(pins, idle)
}

// NewLines takes ownership of already resolved pins and puts each one in
// output mode at the idle level.
func NewLines(pins map[int]gpio.PinOut, idle gpio.Level) (*Lines, error) {
	l := &Lines{pins: make(map[int]gpio.PinOut, len(pins)), idle: idle}
	for id, p := range pins {
		if err := p.Out(idle); err != nil {
			for _, opened := range l.pins {
				opened.Halt()
			}
			return nil, fmt.Errorf("line %d (%s): %w", id, p.Name(), err)
		}
		l.pins[id] = p
	}
	return l, nil
}

// IDs returns the ids with a mapped line, sorted.
func (l *Lines) IDs() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int, 0, len(l.pins))
	for id := range l.pins {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (l *Lines) Write(id int, level gpio.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLinesClosed
	}
	p, ok := l.pins[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownLine, id)
	}
	return p.Out(level)
}

// Close returns every line to the idle level and halts it. Calling it again is
// a no-op.
func (l *Lines) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for id, p := range l.pins {
		if err := p.Out(l.idle); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", id, err))
		}
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ParsePinMap reads "1=GPIO17,2=GPIO27" style mappings.
func ParsePinMap(s string) (map[int]string, error) {
	pins := make(map[int]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, name, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid pin mapping %q", entry)
		}
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid pin id in %q: %w", entry, err)
		}
		if _, dup := pins[id]; dup {
			return nil, fmt.Errorf("pin id %d mapped twice", id)
		}
		pins[id] = strings.TrimSpace(name)
	}
	if len(pins) == 0 {
		return nil, errors.New("empty pin mapping")
	}
	return pins, nil
}
