package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// Client wraps one WebSocket connection. It implements registry.Transport:
// Send enqueues an event without blocking and Close tears the socket down,
// which unblocks the read pump and drives the disconnect cascade.
type Client struct {
	conn *websocket.Conn
	addr string
	srv  *Server

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	// session is set by the read pump once authentication succeeds and is
	// only touched from that goroutine and its deferred cleanup.
	session *registry.Connection
}

func newClient(conn *websocket.Conn, srv *Server, addr string) *Client {
	conn.SetReadLimit(srv.readLimit)
	return &Client{
		conn:   conn,
		addr:   addr,
		srv:    srv,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Send marshals the event and enqueues it toward the peer. It reports false
// when the client is closed or its buffer is full; a full buffer means a slow
// consumer, and the event is dropped rather than stalling the caller.
func (c *Client) Send(event any) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event for %s: %v", c.addr, err)
		return false
	}

	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the transport down. Safe to call more than once and from any
// goroutine. The write pump flushes pending events and closes the socket,
// which in turn unblocks the read pump.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// handleReadError logs an appropriate message for a failed read. Reads never
// continue after an error.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Frame from %s exceeded the read limit", c.addr)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

func (c *Client) readPump() {
	defer c.srv.disconnect(c)

	c.setupReadConnection()

	if !c.authenticate() {
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if !c.dispatch(raw) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection from %s: %v", c.addr, err)
		}
	}()

	for {
		select {
		case <-c.closed:
			// Flush anything enqueued before the close, auth-error and
			// eviction notices in particular, then send a best-effort close
			// frame; the peer may already be gone.
			for {
				select {
				case payload := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}

		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing message to %s: %v", c.addr, err)
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing ping message to %s: %v", c.addr, err)
				}
				return
			}
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
