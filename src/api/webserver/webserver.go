package webserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/notify"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

// MessageStore is the persistence the handlers need.
type MessageStore interface {
	Insert(ctx context.Context, msg *types.ContactMessage) error
	List(ctx context.Context, limit int) ([]types.ContactMessage, error)
}

// Deps are the collaborators a router is built from. Notifier may be nil.
type Deps struct {
	Config   config.Config
	Store    MessageStore
	Limiter  Limiter
	Notifier notify.Notifier
}

func New(deps Deps) (*gin.Engine, error) {
	if deps.Store == nil || deps.Limiter == nil {
		return nil, errors.New("webserver: store and limiter are required")
	}

	g := gin.New()
	if err := g.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	g.Use(RequestID(), RequestLogger(), gin.Recovery(), Instrument())
	if err := attachRoutes(g, deps); err != nil {
		return nil, err
	}
	return g, nil
}
