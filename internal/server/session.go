package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

var errUnhandledMessage = errors.New("unhandled message kind")

// authenticate runs the pre-session phase: the first frame must be an
// authenticate message arriving within the configured deadline, and it must
// verify. Anything else closes the connection. Reports whether the connection
// was admitted.
func (c *Client) authenticate() bool {
	deadline := time.Now().Add(c.srv.cfg.AuthDeadline)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		log.Printf("Error setting auth deadline for %s: %v", c.addr, err)
		return false
	}

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		c.handleReadError(err)
		return false
	}

	msg, err := protocol.DecodeClient(raw)
	if err != nil {
		c.Send(protocol.NewAuthError("malformed credential message"))
		return false
	}
	authMsg, ok := msg.(protocol.Authenticate)
	if !ok {
		c.Send(protocol.NewAuthError("authentication required"))
		return false
	}

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	conn, identity, err := c.srv.gateway.Authenticate(ctx, authMsg.Credential, c)
	if err != nil {
		reason := "authentication failed"
		var authErr *errs.AuthError
		if errors.As(err, &authErr) {
			reason = authErr.Reason
		}
		log.Printf("Authentication failed for %s: %v", c.addr, err)
		c.Send(protocol.NewAuthError(reason))
		return false
	}

	c.session = conn
	c.Send(protocol.NewAuthSuccess(conn.Member(), identity.Rooms, c.srv.cfg.ICEServers))
	log.Printf("Client %s authenticated as user %s (connection %s)", c.addr, conn.UserID, conn.ID)

	// Back to the keepalive deadline for the session proper.
	c.setupReadConnection()
	return true
}

// dispatch decodes and handles one in-session frame. Reports whether the
// session should continue.
func (c *Client) dispatch(raw []byte) bool {
	msg, err := protocol.DecodeClient(raw)
	if err != nil {
		log.Printf("Invalid message from %s: %v", c.addr, err)
		c.Send(protocol.NewError(errs.CodeValidation, err.Error()))
		return true
	}
	return c.handle(msg)
}

// handle runs one decoded client message against the owning component. The
// type switch is exhaustive over protocol.ClientMessage; new wire kinds fail
// decoding before they can reach the default branch.
func (c *Client) handle(msg protocol.ClientMessage) bool {
	conn := c.session

	var err error
	switch m := msg.(type) {
	case protocol.Authenticate:
		err = &errs.ValidationError{Field: "type", Reason: "already authenticated"}
	case protocol.JoinRoom:
		err = c.srv.rooms.Join(conn, m.Room)
	case protocol.LeaveRoom:
		err = c.srv.rooms.Leave(conn, m.Room)
	case protocol.PostMessage:
		err = c.srv.rooms.Post(conn, m.Room, m.Content)
	case protocol.Typing:
		c.srv.rooms.Typing(conn, m.Room)
	case protocol.JoinVoice:
		err = c.srv.voice.Join(conn, m.Room)
	case protocol.LeaveVoice:
		c.srv.voice.Leave(conn, m.Room)
	case protocol.Signal:
		err = c.srv.voice.Relay(conn, m.To, m.Sig, m.Body)
	case protocol.UpdateVoiceState:
		c.srv.voice.UpdateState(conn, m.VoiceStateUpdate)
	default:
		err = &errs.InternalError{Err: errUnhandledMessage}
	}

	if err == nil {
		return true
	}

	c.sendError(err)
	if errs.Fatal(err) {
		log.Printf("Closing connection %s after fatal error: %v", conn.ID, err)
		return false
	}
	return true
}

// sendError maps a component error onto the wire.
func (c *Client) sendError(err error) {
	var rateErr *errs.RateLimitError
	if errors.As(err, &rateErr) {
		c.Send(protocol.NewRateLimitError(errs.CodeRateLimit, err.Error(), rateErr.Remaining, rateErr.ResetAt))
		return
	}
	c.Send(protocol.NewError(errs.WireCode(err), err.Error()))
}
