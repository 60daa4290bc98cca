package handlers

import (
	"gorm.io/gorm"

	"github.com/klerio/helpdesk/internal/config"
	"github.com/klerio/helpdesk/internal/email"
	"github.com/klerio/helpdesk/internal/instructions"
	"github.com/klerio/helpdesk/internal/notifications"
	"github.com/klerio/helpdesk/internal/store/redisstore"
	"github.com/klerio/helpdesk/internal/ws"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Redis       *redisstore.Store
	SMTPSetting email.SMTPConfig

	Messages      *instructions.Service
	Sidebar       *instructions.Aggregator
	Notifications *notifications.Service
	Hub           *ws.Hub
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, hub *ws.Hub) *Handler {
	repo := instructions.NewRepo(db)
	return &Handler{
		DB:    db,
		Cfg:   cfg,
		Redis: rds,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Messages:      instructions.NewService(repo),
		Sidebar:       instructions.NewAggregator(repo, cfg.OperatorClientID, cfg.GroupClientID),
		Notifications: notifications.NewService(notifications.NewRepo(db)),
		Hub:           hub,
	}
}
