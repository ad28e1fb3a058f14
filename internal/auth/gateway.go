package auth

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
)

// ProfileStore is the external profile collaborator.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (protocol.Profile, error)
}

// RoomDirectory is the durable channel/membership store, consulted only at
// authentication time to seed the client's initial roster.
type RoomDirectory interface {
	UserRooms(ctx context.Context, userID string) ([]protocol.RoomInfo, error)
}

// Identity is the result of a successful authentication.
type Identity struct {
	UserID  string
	Profile protocol.Profile
	Rooms   []protocol.RoomInfo
}

// Gateway authenticates credentials and registers the resulting connection,
// guaranteeing at most one live connection per user.
type Gateway struct {
	verifier TokenVerifier
	profiles ProfileStore
	rooms    RoomDirectory
	registry *registry.Registry

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewGateway wires the gateway to its collaborators.
func NewGateway(verifier TokenVerifier, profiles ProfileStore, rooms RoomDirectory, reg *registry.Registry) *Gateway {
	return &Gateway{
		verifier: verifier,
		profiles: profiles,
		rooms:    rooms,
		registry: reg,
		locks:    make(map[string]*userLock),
	}
}

// Authenticate verifies the credential, fetches the display profile and room
// roster, evicts any prior connection for the same user, and registers the new
// one. Eviction and registration happen inside a per-user critical section so
// that two near-simultaneous logins for the same user resolve to exactly one
// live connection.
func (g *Gateway) Authenticate(ctx context.Context, credential string, transport registry.Transport) (*registry.Connection, Identity, error) {
	userID, err := g.verifier.Verify(credential)
	if err != nil {
		reason := "invalid credential"
		if errors.Is(err, ErrExpiredToken) {
			reason = "expired credential"
		}
		return nil, Identity{}, &errs.AuthError{Reason: reason, Err: err}
	}

	// Both fetches may suspend on external I/O; neither holds the user lock.
	profile, err := g.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, Identity{}, &errs.AuthError{Reason: "identity service unreachable", Err: err}
	}

	rooms, err := g.rooms.UserRooms(ctx, userID)
	if err != nil {
		// Roster seeding is best-effort; the client can still join rooms.
		log.Printf("Room roster fetch failed for user %s: %v", userID, err)
		rooms = nil
	}

	unlock := g.lockUser(userID)
	defer unlock()

	if prior := g.registry.LookupByUserID(userID); prior != nil {
		log.Printf("Evicting prior connection %s for user %s", prior.ID, userID)
		prior.Send(protocol.NewAuthError("evicted"))
		prior.CloseTransport()
		metrics.Evictions.Inc()
	}

	conn := g.registry.Register(userID, profile, transport)
	return conn, Identity{UserID: userID, Profile: profile, Rooms: rooms}, nil
}

// lockUser acquires the per-user critical section and returns its release
// function. Lock entries are refcounted so the map does not accumulate one
// mutex per user ever seen.
func (g *Gateway) lockUser(userID string) func() {
	g.mu.Lock()
	l, ok := g.locks[userID]
	if !ok {
		l = &userLock{}
		g.locks[userID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, userID)
		}
		g.mu.Unlock()
	}
}
