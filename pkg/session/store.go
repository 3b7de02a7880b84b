package session

import (
	"context"
	"fmt"

	"clinic-assistant-be/pkg/conversation"
)

// Key identifies one conversation across channels. The same end user on a
// different channel gets an independent session.
type Key struct {
	OrganizationID string
	Channel        string
	UserID         string
}

func (k Key) String() string {
	return fmt.Sprintf("session:%s:%s:%s", k.OrganizationID, k.Channel, k.UserID)
}

// Store persists conversation state between turns. Load returns a fresh
// state when no session exists, so callers never see a nil state.
type Store interface {
	Load(ctx context.Context, key Key) (*conversation.State, error)
	Save(ctx context.Context, key Key, state *conversation.State) error
	Delete(ctx context.Context, key Key) error
}
