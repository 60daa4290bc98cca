package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klerio/helpdesk/internal/config"
	"github.com/klerio/helpdesk/internal/db"
	"github.com/klerio/helpdesk/internal/httpapi"
	"github.com/klerio/helpdesk/internal/instructions"
	"github.com/klerio/helpdesk/internal/models"
	"github.com/klerio/helpdesk/internal/notifications"
	"github.com/klerio/helpdesk/internal/store/rabbitmq"
	"github.com/klerio/helpdesk/internal/store/redisstore"
	"github.com/klerio/helpdesk/internal/ws"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Client{},
		&instructions.Message{},
		&notifications.Notification{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	// Notification publishing is best-effort; a missing broker degrades to
	// realtime-only delivery instead of blocking boot.
	var events ws.EventPublisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Printf("rabbit unavailable, durable notifications disabled: %v", err)
	} else {
		events = pub
		defer pub.Close()
	}

	repo := instructions.NewRepo(gdb)
	svc := instructions.NewService(repo)
	notifSvc := notifications.NewService(notifications.NewRepo(gdb))

	policy := ws.OpenJoinPolicy
	if cfg.RoomJoinPolicy == "member" {
		policy = ws.MemberJoinPolicy(repo)
	}
	hub := ws.NewHub(svc, notifSvc, events, policy)

	router := httpapi.NewRouter(gdb, cfg, rds, hub)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
