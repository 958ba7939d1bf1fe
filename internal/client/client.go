// Package client defines the per-connection identifier and the cheaply
// cloned client handle other components use to talk to a connection.
package client

import (
	"hash/fnv"
	"math/rand"
	"net"

	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/user"
)

// ID identifies one connection for its whole lifetime. It is derived
// from a hash of the local and peer addresses plus a random nonce, so
// it doubles as a stable registration token and is never reused while
// the connection is open.
type ID struct {
	addrs uint64
	nonce uint64
}

// NewID derives an ID from the two endpoint addresses of a connection.
func NewID(local, remote net.Addr) ID {
	h := fnv.New64a()
	if local != nil {
		h.Write([]byte(local.Network()))
		h.Write([]byte(local.String()))
	}
	if remote != nil {
		h.Write([]byte(remote.Network()))
		h.Write([]byte(remote.String()))
	}
	return ID{addrs: h.Sum64(), nonce: rand.Uint64()}
}

// Token returns a deterministic event-registration token for the ID.
func (id ID) Token() uint64 {
	return id.addrs ^ id.nonce
}

// Conn is the transport-side endpoint of a client connection. Enqueue
// appends an encoded message to the connection's outbound queue and
// fails when the connection is going away or the queue is full; Close
// schedules connection teardown.
type Conn interface {
	Enqueue(msg []byte) error
	Close()
}

// Origin selects the prefix used when building a message.
type Origin int

const (
	// FromServer prefixes messages with the server name.
	FromServer Origin = iota
	// FromUser prefixes messages with the client's public hostmask.
	FromUser
)

// Client is a shared handle to one connection: identity, the
// lock-protected user info block, the server name, and the outbound
// queue. It is cheap to copy; the underlying socket and buffers stay
// exclusively owned by the transport.
type Client struct {
	id         ID
	info       *user.User
	serverName string
	conn       Conn
}

// New builds a client handle.
func New(id ID, info *user.User, serverName string, conn Conn) Client {
	return Client{id: id, info: info, serverName: serverName, conn: conn}
}

// ID returns the connection identifier.
func (c Client) ID() ID {
	return c.id
}

// Info returns the shared user info block.
func (c Client) Info() *user.User {
	return c.info
}

// ServerName returns the name the server identifies itself with.
func (c Client) ServerName() string {
	return c.serverName
}

// Nick returns the client's current nickname.
func (c Client) Nick() string {
	return c.info.Nick()
}

// BuildMsg builds a wire line on behalf of this client.
func (c Client) BuildMsg(origin Origin, cmd string, params ...string) []byte {
	prefix := c.serverName
	if origin == FromUser {
		prefix = c.info.Hostmask()
	}
	return irc.Build(prefix, cmd, params...)
}

// BuildMsgTrailing is BuildMsg with the last parameter forced into a
// ":"-prefixed trailing argument, for free-form payloads.
func (c Client) BuildMsgTrailing(origin Origin, cmd string, params ...string) []byte {
	prefix := c.serverName
	if origin == FromUser {
		prefix = c.info.Hostmask()
	}
	return irc.BuildTrailing(prefix, cmd, params...)
}

// SendMsg builds a message and queues it for delivery to this client.
func (c Client) SendMsg(origin Origin, cmd string, params ...string) {
	c.SendRaw(c.BuildMsg(origin, cmd, params...))
}

// SendMsgFrom queues a message whose prefix is another client's hostmask.
func (c Client) SendMsgFrom(from Client, cmd string, params ...string) {
	c.SendRaw(from.BuildMsg(FromUser, cmd, params...))
}

// SendResponse queues a numeric reply. The client's nickname is
// inserted as the first parameter, as required for numeric replies.
func (c Client) SendResponse(code irc.ResponseCode, params ...string) {
	all := append([]string{c.Nick()}, params...)
	c.SendRaw(irc.Build(c.serverName, code.String(), all...))
}

// SendRaw queues an already encoded line. A full or closed outbound
// queue schedules teardown of the connection; a slow consumer cannot
// block the sender.
func (c Client) SendRaw(msg []byte) {
	if c.conn == nil {
		return
	}
	if err := c.conn.Enqueue(msg); err != nil {
		c.conn.Close()
	}
}

// Close schedules connection teardown.
func (c Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
