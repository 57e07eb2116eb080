package link

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractality/fractal"
)

func TestPipeListenerAcceptsOnce(t *testing.T) {
	client, listener := NewPipeListener()
	defer client.Close()

	conn, err := listener.Accept()
	if err != nil || conn == nil {
		t.Fatalf("Accept() = %v, %v", conn, err)
	}
	defer conn.Close()

	done := make(chan error)
	go func() {
		_, err := listener.Accept()
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("second Accept() returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	listener.Close()
	if err := <-done; !errors.Is(err, net.ErrClosed) {
		t.Errorf("Accept() after Close = %v, want net.ErrClosed", err)
	}
	if err := listener.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestMessengerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, listener := NewPipeListener()
	server, err := listener.Accept()
	if err != nil {
		t.Fatal(err)
	}

	quit := func(err error) {
		if err != nil {
			t.Errorf("quit(%v)", err)
		}
	}
	received := make(chan any, 4)

	a := NewMessenger(ctx, client, quit, func(any) {})
	NewMessenger(ctx, server, quit, func(msg any) { received <- msg })

	s := fractal.DefaultState()
	s.Offset = mgl64.Vec2{-0.75, 0.1}
	s.C = fractal.ComplexParameter{Real: fractal.X, Imaginary: fractal.Value(0.3)}

	a.Send(&EditMessage{State: s, View: true})
	a.Send(&CapabilityMessage{DoublePrecision: true})

	select {
	case msg := <-received:
		edit, ok := msg.(*EditMessage)
		if !ok {
			t.Fatalf("received %T, want *EditMessage", msg)
		}
		if edit.State != s || !edit.View {
			t.Errorf("received %+v, want %+v", edit.State, s)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	select {
	case msg := <-received:
		if c, ok := msg.(*CapabilityMessage); !ok || !c.DoublePrecision {
			t.Errorf("received %#v, want capability", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}
