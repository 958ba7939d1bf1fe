package server

import (
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
)

// NickServ lets users claim their nickname with a password. Accounts
// live in memory only; they are lost on restart.
type NickServ struct {
	logger     *zerolog.Logger
	accounts   map[string][]byte // canonical nick -> bcrypt hash
	identified map[client.ID]string
}

// NewNickServ creates the service with no registered accounts.
func NewNickServ(logger *zerolog.Logger) *NickServ {
	return &NickServ{
		logger:     logger,
		accounts:   make(map[string][]byte),
		identified: make(map[client.ID]string),
	}
}

// Name implements Service.
func (ns *NickServ) Name() string {
	return "NickServ"
}

// Forget implements Service.
func (ns *NickServ) Forget(id client.ID) {
	delete(ns.identified, id)
}

// Handle implements Service.
func (ns *NickServ) Handle(_ *Dispatcher, c client.Client, text string) {
	cmd, args := splitServiceCommand(text)
	switch cmd {
	case "REGISTER":
		ns.register(c, args)
	case "IDENTIFY":
		ns.identify(c, args)
	case "DROP":
		ns.drop(c)
	case "HELP", "":
		ns.reply(c, "Commands: REGISTER <password>, IDENTIFY <password>, DROP, HELP")
	default:
		ns.reply(c, "Unknown command "+cmd+". Use HELP for a list of commands")
	}
}

func (ns *NickServ) register(c client.Client, args []string) {
	if len(args) < 1 {
		ns.reply(c, "Syntax: REGISTER <password>")
		return
	}
	nick := irc.CanonicalNick(c.Nick())
	if _, taken := ns.accounts[nick]; taken {
		ns.reply(c, "Nickname "+c.Nick()+" is already registered")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		ns.reply(c, "Registration failed, try a different password")
		return
	}
	ns.accounts[nick] = hash
	ns.identified[c.ID()] = nick
	ns.logger.Info().Str("nick", c.Nick()).Msg("nickserv account registered")
	ns.reply(c, "Nickname "+c.Nick()+" registered to you")
}

func (ns *NickServ) identify(c client.Client, args []string) {
	if len(args) < 1 {
		ns.reply(c, "Syntax: IDENTIFY <password>")
		return
	}
	nick := irc.CanonicalNick(c.Nick())
	hash, ok := ns.accounts[nick]
	if !ok {
		ns.reply(c, "Nickname "+c.Nick()+" is not registered")
		return
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(args[0])) != nil {
		ns.reply(c, "Wrong password for "+c.Nick())
		return
	}
	ns.identified[c.ID()] = nick
	ns.reply(c, "You are now identified for "+c.Nick())
}

func (ns *NickServ) drop(c client.Client) {
	nick := irc.CanonicalNick(c.Nick())
	if ns.identified[c.ID()] != nick {
		ns.reply(c, "You must IDENTIFY for "+c.Nick()+" first")
		return
	}
	delete(ns.accounts, nick)
	delete(ns.identified, c.ID())
	ns.logger.Info().Str("nick", c.Nick()).Msg("nickserv account dropped")
	ns.reply(c, "Nickname "+c.Nick()+" dropped")
}

func (ns *NickServ) reply(c client.Client, text string) {
	serviceReply(c, ns.Name(), text)
}
