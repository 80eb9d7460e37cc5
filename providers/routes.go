package providers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/chat/src/accounts"
	"github.com/orchestra-mcp/chat/src/bridge"
	"github.com/orchestra-mcp/chat/src/room"
)

const requestTimeout = 5 * time.Second

// credentialsRequest is the body of /register and /login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type announceRequest struct {
	Text string `json:"text"`
}

// RegisterRoutes registers the REST and info routes via Fiber.
// The WebSocket upgrade uses FastHTTPHandler, dispatched before Fiber by
// Handler.
func (p *ChatPlugin) RegisterRoutes(group fiber.Router) {
	group.Get("/health", p.handleHealth)
	group.Get("/ws/info", p.handleInfo)
	group.Post("/register", p.handleRegister)
	group.Post("/login", p.handleLogin)

	admin := group.Group("/admin", RequireAdmin(p.issuer))
	admin.Get("/users", p.handleListUsers)
	admin.Delete("/user/:username", p.handleDeleteUser)
	admin.Get("/clients", p.handleListClients)
	admin.Post("/announce", p.handleAnnounce)
}

// requestContext bounds how long a handler waits on the room or the
// account store.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (p *ChatPlugin) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (p *ChatPlugin) handleInfo(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	stats, err := p.service.Stats(ctx)
	if err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "room unavailable")
	}
	info := fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"auth_mode": p.cfg.Auth.Mode,
		"clients":   stats.Clients,
		"present":   stats.Present,
		"history":   stats.History,
		"bridge":    false,
	}
	if rb, ok := p.bridge.(*bridge.RedisBridge); ok && rb.Available() {
		info["bridge"] = true
		info["bridge_dropped"] = rb.Dropped()
	}
	return c.JSON(info)
}

func (p *ChatPlugin) handleRegister(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	var req credentialsRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if _, err := p.service.Register(ctx, req.Username, req.Password); err != nil {
		return p.accountError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "registered"})
}

func (p *ChatPlugin) handleLogin(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	var req credentialsRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	session, err := p.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return p.accountError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"token":    session.Token,
		"role":     session.User.View().Role,
		"username": session.User.Username,
	})
}

func (p *ChatPlugin) handleListUsers(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	users, err := p.service.Users(ctx)
	if err != nil {
		return p.accountError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (p *ChatPlugin) handleDeleteUser(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	if err := p.service.DeleteUser(ctx, c.Params("username")); err != nil {
		return p.accountError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (p *ChatPlugin) handleListClients(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	clients, err := p.service.ConnectedClients(ctx)
	if err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "room unavailable")
	}
	present := 0
	for _, info := range clients {
		if info.Principal != nil {
			present++
		}
	}
	return c.JSON(fiber.Map{
		"clients": clients,
		"count":   len(clients),
		"present": present,
	})
}

func (p *ChatPlugin) handleAnnounce(c fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	var req announceRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := p.service.Announce(ctx, req.Text); err != nil {
		if errors.Is(err, room.ErrValidation) {
			return errorJSON(c, fiber.StatusBadRequest, "text is required")
		}
		return errorJSON(c, fiber.StatusServiceUnavailable, "room unavailable")
	}
	return c.JSON(fiber.Map{"success": true})
}

// accountError maps account errors onto HTTP responses.
func (p *ChatPlugin) accountError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, accounts.ErrBanned):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, accounts.ErrUserExists):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, accounts.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	default:
		p.logger.Error().Err(err).Str("path", c.Path()).Msg("account request failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal error")
	}
}
