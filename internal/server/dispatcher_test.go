package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/metrics"
	"github.com/nwin/rauta/internal/user"
)

type testConn struct {
	lines chan string
}

func (c *testConn) Enqueue(msg []byte) error {
	select {
	case c.lines <- string(msg):
	default:
	}
	return nil
}

func (c *testConn) Close() {}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	logger := zerolog.Nop()
	d := New(config.Default(), &logger, metrics.New())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go d.Run(ctx)
	return d
}

func connect(d *Dispatcher) (client.Client, *testConn) {
	conn := &testConn{lines: make(chan string, 64)}
	c := client.New(client.NewID(nil, nil), user.New("example.com"), "localhost", conn)
	d.Connected(c)
	return c, conn
}

func send(t *testing.T, d *Dispatcher, c client.Client, line string) {
	t.Helper()
	msg, err := irc.ParseMessage([]byte(line))
	if err != nil {
		t.Fatalf("ParseMessage(%q): %v", line, err)
	}
	d.Inbound(c.ID(), msg)
}

// waitFor discards lines until one contains want.
func waitFor(t *testing.T, conn *testConn, want string) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line := <-conn.lines:
			if strings.Contains(line, want) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for line containing %q", want)
		}
	}
}

// nextLine returns the next line without skipping.
func nextLine(t *testing.T, conn *testConn) string {
	t.Helper()
	select {
	case line := <-conn.lines:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line")
		return ""
	}
}

func register(t *testing.T, d *Dispatcher, c client.Client, conn *testConn, nick string) {
	t.Helper()
	send(t, d, c, "NICK "+nick)
	send(t, d, c, "USER "+nick+" 0 * :"+nick+" tester")
	waitFor(t, conn, "001 "+nick)
}

func TestRegistrationWelcome(t *testing.T) {
	d := newTestDispatcher(t)
	c, conn := connect(d)
	send(t, d, c, "NICK alice")
	send(t, d, c, "USER alice 0 * :Alice")
	line := waitFor(t, conn, "001")
	if !strings.HasPrefix(line, ":localhost 001 alice :Welcome to the Internet Relay Network alice!alice@example.com") {
		t.Fatalf("unexpected welcome line: %q", line)
	}
}

func TestCapNegotiationDefersWelcome(t *testing.T) {
	d := newTestDispatcher(t)
	c, conn := connect(d)
	send(t, d, c, "CAP LS")
	send(t, d, c, "NICK bob")
	send(t, d, c, "CAP REQ multi-prefix")
	send(t, d, c, "USER bob 0 * :Bob")
	send(t, d, c, "CAP END")

	if line := nextLine(t, conn); !strings.Contains(line, "CAP * LS") {
		t.Fatalf("expected CAP LS reply, got %q", line)
	}
	if line := nextLine(t, conn); !strings.Contains(line, "CAP bob NAK") {
		t.Fatalf("expected CAP NAK reply, got %q", line)
	}
	// Nothing may arrive between the NAK and the welcome: registration
	// completed during negotiation and was released by CAP END.
	if line := nextLine(t, conn); !strings.Contains(line, "001 bob") {
		t.Fatalf("expected welcome after CAP END, got %q", line)
	}
}

func TestCapLsAloneDefersWelcome(t *testing.T) {
	d := newTestDispatcher(t)
	c, conn := connect(d)
	send(t, d, c, "CAP LS")
	send(t, d, c, "NICK eve")
	send(t, d, c, "USER eve 0 * :Eve")
	// LIST is answered even mid-handshake; if USER had completed
	// registration, the welcome would already sit in front of it.
	send(t, d, c, "CAP LIST")
	send(t, d, c, "CAP END")

	if line := nextLine(t, conn); !strings.Contains(line, "CAP * LS") {
		t.Fatalf("expected CAP LS reply, got %q", line)
	}
	if line := nextLine(t, conn); !strings.Contains(line, "CAP eve LIST") {
		t.Fatalf("expected CAP LIST reply before the welcome, got %q", line)
	}
	if line := nextLine(t, conn); !strings.Contains(line, "001 eve") {
		t.Fatalf("expected welcome after CAP END, got %q", line)
	}
}

func TestNickCollision(t *testing.T) {
	d := newTestDispatcher(t)
	c1, conn1 := connect(d)
	register(t, d, c1, conn1, "alice")

	c2, conn2 := connect(d)
	send(t, d, c2, "NICK alice")
	waitFor(t, conn2, "433 * alice")
}

func TestReservedAndInvalidNicks(t *testing.T) {
	d := newTestDispatcher(t)
	c, conn := connect(d)
	send(t, d, c, "NICK NickServ")
	waitFor(t, conn, "432 * NickServ")
	send(t, d, c, "NICK 1badnick")
	waitFor(t, conn, "432 * 1badnick")
	send(t, d, c, "NICK")
	waitFor(t, conn, "431 *")
}

func TestGateDropsCommandsBeforeRegistration(t *testing.T) {
	d := newTestDispatcher(t)
	c, conn := connect(d)
	send(t, d, c, "JOIN #test")
	send(t, d, c, "PRIVMSG #test :hello")
	send(t, d, c, "NICK alice")
	send(t, d, c, "USER alice 0 * :Alice")
	// The gated commands must not have produced any reply.
	if line := nextLine(t, conn); !strings.Contains(line, "001 alice") {
		t.Fatalf("expected the welcome first, got %q", line)
	}
}

func TestJoinAndChannelMessage(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	bob, bobConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	register(t, d, bob, bobConn, "bob")

	send(t, d, alice, "JOIN #test")
	waitFor(t, aliceConn, "366 alice #test")
	send(t, d, bob, "JOIN #test")
	waitFor(t, aliceConn, ":bob!bob@example.com JOIN #test")
	waitFor(t, bobConn, "366 bob #test")

	send(t, d, bob, "PRIVMSG #test :hello world")
	waitFor(t, aliceConn, ":bob!bob@example.com PRIVMSG #test :hello world")
}

func TestRejoinAfterChannelEmpties(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	register(t, d, alice, aliceConn, "alice")

	send(t, d, alice, "JOIN #test")
	waitFor(t, aliceConn, "366 alice #test")
	send(t, d, alice, "PART #test")
	waitFor(t, aliceConn, "PART #test")

	// The emptied actor winds down concurrently; the rejoin must land
	// regardless of whether it hits the old actor or a fresh one.
	time.Sleep(50 * time.Millisecond)
	send(t, d, alice, "JOIN #test")
	waitFor(t, aliceConn, "366 alice #test")
	send(t, d, alice, "MODE #test")
	waitFor(t, aliceConn, "324 alice #test +nt")
}

func TestPrivmsgBetweenUsers(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	bob, bobConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	register(t, d, bob, bobConn, "bob")

	send(t, d, alice, "PRIVMSG bob :psst")
	waitFor(t, bobConn, ":alice!alice@example.com PRIVMSG bob :psst")

	send(t, d, alice, "PRIVMSG ghost :anyone?")
	waitFor(t, aliceConn, "401 alice ghost")

	// NOTICE to a missing nick stays silent; the next reply the sender
	// sees must be for the PRIVMSG probe after it.
	send(t, d, alice, "NOTICE ghost :anyone?")
	send(t, d, alice, "PRIVMSG ghost2 :anyone?")
	waitFor(t, aliceConn, "401 alice ghost2")
}

func TestQuitBroadcastsAndFreesNick(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	bob, bobConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	register(t, d, bob, bobConn, "bob")
	send(t, d, alice, "JOIN #test")
	send(t, d, bob, "JOIN #test")
	waitFor(t, aliceConn, ":bob!bob@example.com JOIN #test")

	send(t, d, bob, "QUIT :gone fishing")
	waitFor(t, aliceConn, ":bob!bob@example.com QUIT :gone fishing")

	carol, carolConn := connect(d)
	register(t, d, carol, carolConn, "bob")
}

func TestNickChangePropagates(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	bob, bobConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	register(t, d, bob, bobConn, "bob")
	send(t, d, alice, "JOIN #test")
	send(t, d, bob, "JOIN #test")
	waitFor(t, aliceConn, ":bob!bob@example.com JOIN #test")

	send(t, d, alice, "NICK alicia")
	waitFor(t, aliceConn, ":alice!alice@example.com NICK alicia")
	waitFor(t, bobConn, ":alice!alice@example.com NICK alicia")

	// The old nick is free again.
	carol, carolConn := connect(d)
	register(t, d, carol, carolConn, "alice")
}

func TestModeQueryOnFreshChannel(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	send(t, d, alice, "JOIN #test")
	waitFor(t, aliceConn, "366 alice #test")

	send(t, d, alice, "MODE #test")
	waitFor(t, aliceConn, "324 alice #test +nt")

	send(t, d, alice, "MODE #nosuch")
	waitFor(t, aliceConn, "403 alice #nosuch")
}

func TestUserModeForOtherUserRejected(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	send(t, d, alice, "MODE bob +i")
	waitFor(t, aliceConn, "502 alice")
}

func TestNickServAccountLifecycle(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	register(t, d, alice, aliceConn, "alice")

	send(t, d, alice, "PRIVMSG NickServ :REGISTER hunter2")
	waitFor(t, aliceConn, "NOTICE alice :Nickname alice registered to you")

	send(t, d, alice, "PRIVMSG NickServ :IDENTIFY wrong")
	waitFor(t, aliceConn, "Wrong password for alice")

	send(t, d, alice, "PRIVMSG NickServ :IDENTIFY hunter2")
	waitFor(t, aliceConn, "You are now identified for alice")

	send(t, d, alice, "PRIVMSG NickServ :DROP")
	waitFor(t, aliceConn, "Nickname alice dropped")
}

func TestHangupSynthesizesQuit(t *testing.T) {
	d := newTestDispatcher(t)
	alice, aliceConn := connect(d)
	bob, bobConn := connect(d)
	register(t, d, alice, aliceConn, "alice")
	register(t, d, bob, bobConn, "bob")
	send(t, d, alice, "JOIN #test")
	send(t, d, bob, "JOIN #test")
	waitFor(t, aliceConn, ":bob!bob@example.com JOIN #test")

	d.Hangup(bob.ID())
	waitFor(t, aliceConn, ":bob!bob@example.com QUIT :Connection lost")
}
