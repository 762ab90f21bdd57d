/*
Package handler provides the HTTP surface of the coordinator.

This file contains the WebSocket handshake handler. The bearer credential
must be presented here, out-of-band of the chat events: a connection
without a valid credential is rejected before the upgrade and never
reaches the event dispatch at all.
*/
package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"pulsechat/internal/app/chat"
	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/auth/jwt"
	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/limiter"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/resp"
)

// extractCredential pulls the bearer token from the Authorization header,
// falling back to the "token" query parameter for browser WebSocket
// clients that cannot set headers.
func extractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// HandleWebSocket processes a WebSocket connection request: rate limit,
// credential verification, upgrade, then the connection lifecycle.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		credential := extractCredential(r)
		if credential == "" {
			logx.Warn("WebSocket connection rejected: Missing credential.")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		claims, err := jwt.ParseToken(credential, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: Invalid credential.", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		currentUser := user.User{
			ID:       claims.ID,
			Username: claims.Username,
			Avatar:   claims.Avatar,
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Coordinator, conn, currentUser)

		go client.WritePump()

		deps.Coordinator.Register(client.Session())

		logx.Info("WebSocket connection established.", "username", currentUser.Username)

		client.ReadPump()
	}
}
