package handler

import (
	"pulsechat/internal/app/chat"
	"pulsechat/internal/configs"
)

// AppDeps bundles the shared dependencies the HTTP handlers need.
type AppDeps struct {
	Coordinator *chat.Coordinator
	Config      *configs.AppConfig
}
