package link

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"reflect"
)

// sendQueueLength bounds how many messages Send queues before blocking. The
// render window sends during realize, before the config window is reading.
const sendQueueLength = 16

// Messenger exchanges gob encoded messages over conn. Received messages are
// passed to the handler on the receiving goroutine; handlers that touch GTK
// must hop back onto the main loop themselves.
type Messenger struct {
	ctx  context.Context
	quit func(error)
	send chan any
}

// NewMessenger starts the send and receive loops. A failure on either side
// calls quit with the cause; conn is closed when ctx is done.
func NewMessenger(
	ctx context.Context,
	conn net.Conn,
	quit func(error),
	handle func(msg any),
) *Messenger {
	m := &Messenger{
		ctx:  ctx,
		quit: quit,
		send: make(chan any, sendQueueLength),
	}

	context.AfterFunc(ctx, func() {
		conn.Close()
	})

	go m.handleSend(conn)
	go m.handleReceive(conn, handle)
	return m
}

// Send queues msg, giving up when the messenger's context is done.
func (m *Messenger) Send(msg any) {
	select {
	case m.send <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Messenger) handleSend(conn net.Conn) {
	enc := gob.NewEncoder(conn)

	for {
		select {
		case msg := <-m.send:
			if err := enc.Encode(&msg); err != nil {
				m.fail(fmt.Errorf("sending %T: %w", msg, err))
				return
			}
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Messenger) handleReceive(conn net.Conn, handle func(any)) {
	dec := gob.NewDecoder(conn)

	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			m.fail(fmt.Errorf("receiving: %w", err))
			return
		}

		switch v.(type) {
		case *StateMessage, *EditMessage, *CapabilityMessage:
			handle(v)
		default:
			slog.Warn("unknown message received", "type", reflect.TypeOf(v))
		}
	}
}

func (m *Messenger) fail(err error) {
	if m.ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		m.quit(nil)
		return
	}
	m.quit(err)
}
