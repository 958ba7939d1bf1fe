// Package user holds the per-client identity block shared between the
// dispatcher, channel actors and the transport.
package user

import "sync"

// User is the mutable identity of a connected client. It is read from
// many goroutines (nick lookups, hostmask checks) and written rarely
// (registration, nick change), so access goes through accessor methods
// guarding a RWMutex. The public hostmask string is cached and kept
// consistent with nick/user/host changes. Lock scope is a single
// accessor call; the lock is never held across a message send.
type User struct {
	mu       sync.RWMutex
	nick     string
	username string
	realname string
	host     string
	hostmask string
	status   Status
}

// New constructs a User for a fresh connection. The nick starts as "*",
// the placeholder used in replies before NICK is accepted.
func New(host string) *User {
	u := &User{nick: "*", host: host, status: Status{Phase: Connected}}
	u.updateHostmask()
	return u
}

// Nick returns the current nickname.
func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick
}

// SetNick updates the nickname and the cached hostmask.
func (u *User) SetNick(nick string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick = nick
	u.updateHostmask()
}

// Username returns the username from USER.
func (u *User) Username() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.username
}

// SetUsername updates the username and the cached hostmask.
func (u *User) SetUsername(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.username = name
	u.updateHostmask()
}

// Realname returns the free-form real name from USER.
func (u *User) Realname() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.realname
}

// SetRealname updates the real name.
func (u *User) SetRealname(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.realname = name
}

// Host returns the display hostname.
func (u *User) Host() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.host
}

// SetHost updates the display hostname and the cached hostmask.
func (u *User) SetHost(host string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.host = host
	u.updateHostmask()
}

// Hostmask returns the cached nick!user@host identity string.
func (u *User) Hostmask() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.hostmask
}

// Status returns the registration status.
func (u *User) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// SetStatus stores a new registration status.
func (u *User) SetStatus(s Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = s
}

// caller holds u.mu
func (u *User) updateHostmask() {
	u.hostmask = u.nick + "!" + u.username + "@" + u.host
}
