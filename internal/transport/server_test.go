package transport

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/metrics"
)

type recordingHandler struct {
	connected chan client.Client
	inbound   chan string
	hangup    chan client.ID
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		connected: make(chan client.Client, 4),
		inbound:   make(chan string, 16),
		hangup:    make(chan client.ID, 4),
	}
}

func (h *recordingHandler) Connected(c client.Client) { h.connected <- c }

func (h *recordingHandler) Inbound(_ client.ID, msg *irc.Message) {
	h.inbound <- msg.Command()
}

func (h *recordingHandler) Hangup(id client.ID) { h.hangup <- id }

func startServer(t *testing.T) (*recordingHandler, net.Addr) {
	t.Helper()
	cfg := config.Default()
	cfg.ResolveHostnames = false
	logger := zerolog.Nop()
	handler := newRecordingHandler()
	srv := NewServer(cfg, &logger, metrics.New(), handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx, ln)
	return handler, ln.Addr()
}

func recv[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestServeDeliversParsedLines(t *testing.T) {
	handler, addr := startServer(t)

	sock, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	cl := recv(t, handler.connected, "connection")
	if _, err := sock.Write([]byte("NICK alice\r\nUSER alice 0 * :Alice\r\n")); err != nil {
		t.Fatal(err)
	}
	if cmd := recv(t, handler.inbound, "first message"); cmd != "NICK" {
		t.Fatalf("first command = %q, want NICK", cmd)
	}
	if cmd := recv(t, handler.inbound, "second message"); cmd != "USER" {
		t.Fatalf("second command = %q, want USER", cmd)
	}

	// The handler can push bytes back through the accepted client.
	cl.SendRaw([]byte("PING :token\r\n"))
	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(sock).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(line, "PING :token") {
		t.Fatalf("wrote %q to the socket", line)
	}
}

func TestHangupOnClientClose(t *testing.T) {
	handler, addr := startServer(t)

	sock, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	cl := recv(t, handler.connected, "connection")
	sock.Close()
	if id := recv(t, handler.hangup, "hangup"); id != cl.ID() {
		t.Fatalf("hangup for id %v, want %v", id, cl.ID())
	}
}

func TestOversizedLineDoesNotKillConnection(t *testing.T) {
	handler, addr := startServer(t)

	sock, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()
	recv(t, handler.connected, "connection")

	long := strings.Repeat("a", 2*irc.MaxLineLen)
	if _, err := sock.Write([]byte(long + "\r\nNICK bob\r\n")); err != nil {
		t.Fatal(err)
	}
	if cmd := recv(t, handler.inbound, "message after oversized line"); cmd != "NICK" {
		t.Fatalf("command = %q, want NICK", cmd)
	}
}

func TestCloseAfterHandlerShutsConnection(t *testing.T) {
	handler, addr := startServer(t)

	sock, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()
	cl := recv(t, handler.connected, "connection")

	cl.Close()
	recv(t, handler.hangup, "hangup")

	// The peer observes the shutdown as a closed stream.
	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 32)
	for {
		if _, err := sock.Read(buf); err != nil {
			return
		}
	}
}
