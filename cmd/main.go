package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/skillhunt/messaging-backend/internal/api/auth"
	"github.com/skillhunt/messaging-backend/internal/api/messages"
	"github.com/skillhunt/messaging-backend/internal/config"
	"github.com/skillhunt/messaging-backend/internal/directory"
	"github.com/skillhunt/messaging-backend/internal/middleware"
	"github.com/skillhunt/messaging-backend/internal/notify"
	"github.com/skillhunt/messaging-backend/internal/reconcile"
	"github.com/skillhunt/messaging-backend/internal/session"
	"github.com/skillhunt/messaging-backend/internal/source"
	"github.com/skillhunt/messaging-backend/internal/storage/memory"
	"github.com/skillhunt/messaging-backend/internal/ws"
)

func main() {
	cfg := config.Load()

	messageStore := memory.NewMessageStore()
	userStore := memory.NewUserStore()
	notifier := notify.NewNotifier()
	sessions := session.NewManager(cfg.JWTSecret, 24*time.Hour)

	names := directory.NewMemory()
	names.Seed(source.UserNames)
	var dir directory.Directory = names
	if cfg.ValkeyAddr != "" {
		cache, err := directory.NewValkeyCache(cfg.ValkeyAddr, names)
		if err != nil {
			log.Printf("[MAIN] valkey unavailable, using in-memory directory: %v", err)
		} else {
			defer cache.Close()
			dir = cache
		}
	}

	var demo *source.Demo
	if cfg.DemoMode {
		demo = source.NewDemo()
		demo.StartSimulation(context.Background())
	}

	opts := []reconcile.Option{reconcile.WithRemoteRefresh(cfg.RemoteRefresh)}
	if cfg.BackendBaseURL != "" {
		opts = append(opts, reconcile.WithRemote(source.NewHTTPSource(cfg.BackendBaseURL)))
	}
	rec := reconcile.New(messageStore, demo, notifier, session.FromRequest{}, dir, opts...)

	hub := ws.NewHub()
	go hub.Run()
	messages.RunLocalSendBridge(notifier, hub)

	router := mux.NewRouter()
	router.Use(middleware.CORS, middleware.Logging, middleware.Auth(sessions))
	auth.RegisterAuthRoutes(router, &auth.Handler{Users: userStore, Sessions: sessions, Names: names})
	messages.RegisterMessageRoutes(router, &messages.Handler{Rec: rec, Hub: hub, Session: session.FromRequest{}})

	log.Printf("Server started at %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, router))
}
