package auth

import (
	"context"
	"fmt"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

// LocalDirectory is an in-process stand-in for the external profile and
// channel stores, used when the server runs without them (local development,
// tests). Profiles are derived from the user id and every user is seeded with
// the same default channel roster.
type LocalDirectory struct {
	DefaultRooms []protocol.RoomInfo
}

// NewLocalDirectory creates a directory seeding a single "general" channel.
func NewLocalDirectory() *LocalDirectory {
	return &LocalDirectory{
		DefaultRooms: []protocol.RoomInfo{
			{ID: "general", Name: "general", Kind: protocol.RoomChannel},
		},
	}
}

// GetProfile derives a display profile from the user id.
func (d *LocalDirectory) GetProfile(_ context.Context, userID string) (protocol.Profile, error) {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return protocol.Profile{
		Username:    fmt.Sprintf("user-%s", short),
		DisplayName: fmt.Sprintf("User %s", short),
	}, nil
}

// UserRooms returns the default roster for every user.
func (d *LocalDirectory) UserRooms(_ context.Context, _ string) ([]protocol.RoomInfo, error) {
	rooms := make([]protocol.RoomInfo, len(d.DefaultRooms))
	copy(rooms, d.DefaultRooms)
	return rooms, nil
}
