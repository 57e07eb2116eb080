package link

import (
	"encoding/gob"
	"net"
	"sync"

	"github.com/stewi1014/fractality/fractal"
)

// StateMessage carries the render window's current state to the
// configuration window. Aspect is the width over height of the render
// viewport, used to fit bookmarked regions.
type StateMessage struct {
	State  fractal.State
	Aspect float64
}

// EditMessage carries user edits to the render window. The view (scale and
// offset) is only replaced when View is set, so a pan in progress is not
// overwritten by a stale copy.
type EditMessage struct {
	State fractal.State
	View  bool
}

// CapabilityMessage reports the probed hardware capability.
type CapabilityMessage struct {
	DoublePrecision bool
}

func init() {
	gob.Register(&StateMessage{})
	gob.Register(&EditMessage{})
	gob.Register(&CapabilityMessage{})
}

// NewPipeListener returns the two ends of an in-memory connection. The
// listener hands out its end exactly once.
func NewPipeListener() (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	return clientPipe, &pipeListener{
		pipe: listenerPipe,
		done: make(chan struct{}),
	}
}

type pipeListener struct {
	mu   sync.Mutex
	pipe net.Conn
	done chan struct{}
	once sync.Once
}

func (p *pipeListener) Accept() (net.Conn, error) {
	p.mu.Lock()
	pipe := p.pipe
	p.pipe = nil
	p.mu.Unlock()

	if pipe != nil {
		return pipe, nil
	}
	<-p.done
	return nil, net.ErrClosed
}

func (p *pipeListener) Close() error {
	p.once.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pipe != nil {
		return p.pipe.Close()
	}
	return nil
}

func (p *pipeListener) Addr() net.Addr {
	return pipeAddr{}
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }
