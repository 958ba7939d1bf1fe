package server

import (
	"strings"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/irc"
)

// Service is a pseudo client addressed by nickname. A PRIVMSG to a
// service nickname is routed here instead of to a user; the text is the
// service command line. Handle runs on the dispatcher goroutine.
type Service interface {
	Name() string
	Handle(d *Dispatcher, c client.Client, text string)
	// Forget drops any per-connection state once the client is gone.
	Forget(id client.ID)
}

// serviceReply sends a NOTICE to the client on behalf of a service.
func serviceReply(c client.Client, service, text string) {
	prefix := service + "!services@" + c.ServerName()
	c.SendRaw(irc.BuildTrailing(prefix, "NOTICE", c.Nick(), text))
}

func splitServiceCommand(text string) (cmd string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToUpper(fields[0]), fields[1:]
}
