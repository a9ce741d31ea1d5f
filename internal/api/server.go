package api

import (
	"fmt"

	"go-cord/internal/config"
	"go-cord/internal/linkpreview"
	m "go-cord/internal/message"
	"go-cord/internal/presence"
	s "go-cord/internal/storage"
	"go-cord/internal/ws"

	a "go-cord/internal/auth"

	"github.com/gin-gonic/gin"
)

// Serve wires the stores, the hub and the pipelines together and runs
// the HTTP server.
func Serve(cfg config.Config) error {
	db, err := s.Connect(cfg.DBPath)
	if err != nil {
		return err
	}

	redisClient, err := s.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	tracker := presence.NewTracker(presence.NewRedisStore(redisClient), db, hub)
	messages := m.NewMessageService(db, linkpreview.NewFetcher(cfg.PreviewTimeout))
	gateway := ws.NewGateway(hub, a.VerifyIdentity, tracker, messages)

	r := gin.Default()
	router := NewRouter(db, tracker, messages, gateway)
	router.RegisterRoutes(r)

	return r.Run(fmt.Sprintf(":%d", cfg.Port))
}
