package service

import (
	"context"

	"github.com/bogobit/community-server-go/internal/chat"
)

// Hub is the connection-registry surface the services drive. *chat.Hub is
// the production implementation.
type Hub interface {
	Subscribe(sessionToken string, userID int64) *chat.Client
	Unsubscribe(client *chat.Client)
	DisconnectToken(sessionToken string)
	Publish(ctx context.Context, event chat.Event) error
}
