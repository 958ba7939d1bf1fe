package irc

import "fmt"

// ResponseCode is a numeric reply code as defined by RFC 1459/2812.
type ResponseCode uint16

// Numeric replies used by the server.
const (
	RPL_WELCOME         ResponseCode = 1
	RPL_ENDOFWHO        ResponseCode = 315
	RPL_CHANNELMODEIS   ResponseCode = 324
	RPL_NOTOPIC         ResponseCode = 331
	RPL_TOPIC           ResponseCode = 332
	RPL_INVITING        ResponseCode = 341
	RPL_INVITELIST      ResponseCode = 346
	RPL_ENDOFINVITELIST ResponseCode = 347
	RPL_EXCEPTLIST      ResponseCode = 348
	RPL_ENDOFEXCEPTLIST ResponseCode = 349
	RPL_WHOREPLY        ResponseCode = 352
	RPL_NAMREPLY        ResponseCode = 353
	RPL_ENDOFNAMES      ResponseCode = 366
	RPL_BANLIST         ResponseCode = 367
	RPL_ENDOFBANLIST    ResponseCode = 368

	ERR_NOSUCHNICK       ResponseCode = 401
	ERR_NOSUCHCHANNEL    ResponseCode = 403
	ERR_TOOMANYTARGETS   ResponseCode = 407
	ERR_INVALIDCAPCMD    ResponseCode = 410
	ERR_NORECIPIENT      ResponseCode = 411
	ERR_NOTEXTTOSEND     ResponseCode = 412
	ERR_NONICKNAMEGIVEN  ResponseCode = 431
	ERR_ERRONEUSNICKNAME ResponseCode = 432
	ERR_NICKNAMEINUSE    ResponseCode = 433
	ERR_NOTONCHANNEL     ResponseCode = 442
	ERR_USERONCHANNEL    ResponseCode = 443
	ERR_NEEDMOREPARAMS   ResponseCode = 461
	ERR_ALREADYREGISTRED ResponseCode = 462
	ERR_CHANNELISFULL    ResponseCode = 471
	ERR_INVITEONLYCHAN   ResponseCode = 473
	ERR_BANNEDFROMCHAN   ResponseCode = 474
	ERR_BADCHANNELKEY    ResponseCode = 475
	ERR_CHANOPRIVSNEEDED ResponseCode = 482
	ERR_USERSDONTMATCH   ResponseCode = 502
)

// String renders the code as the three-digit command token used on the wire.
func (c ResponseCode) String() string {
	return fmt.Sprintf("%03d", uint16(c))
}
