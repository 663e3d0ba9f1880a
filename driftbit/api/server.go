// Package api exposes the command surface over HTTP: a single authenticated
// endpoint that accepts game commands and returns their output, with
// gameplay failures reported as data rather than transport errors.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/junovette/driftbit/driftbit/config"
)

// Command is one inbound game command.
type Command struct {
	Name     string   `json:"command"`
	UserID   string   `json:"user_id"`
	UserName string   `json:"user_name"`
	Args     []string `json:"args"`
}

// Runner executes a command and returns its player-facing output. Gameplay
// failures come back as errors and are relayed to the caller as data.
type Runner func(ctx context.Context, cmd Command) (string, error)

type response struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Server struct {
	app    *fiber.App
	apiKey string
	run    Runner
}

func NewServer(apiKey string, run Runner) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{app: app, apiKey: apiKey, run: run}
	app.Get("/health", s.handleHealth)
	app.Post("/command", s.requireKey, s.handleCommand)
	return s
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	slog.Info("API server listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Test routes a request through the app without a listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// requireKey authenticates the shared-secret header before any command runs.
func (s *Server) requireKey(c *fiber.Ctx) error {
	if s.apiKey == "" || c.Get("x-api-key") != s.apiKey {
		slog.Warn("Rejected unauthenticated command request",
			slog.String("ip", c.IP()))
		return c.Status(http.StatusUnauthorized).JSON(response{
			Success: false,
			Error:   "invalid api key",
		})
	}
	return c.Next()
}

func (s *Server) handleCommand(c *fiber.Ctx) error {
	var cmd Command
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(http.StatusBadRequest).JSON(response{
			Success: false,
			Error:   "malformed command payload",
		})
	}
	if cmd.Name == "" || cmd.UserID == "" {
		return c.Status(http.StatusBadRequest).JSON(response{
			Success: false,
			Error:   "command and user_id are required",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), config.CommandExecutionTimeout)
	defer cancel()

	out, err := s.run(ctx, cmd)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			slog.Error("Command timed out",
				slog.String("command", cmd.Name),
				slog.String("user_id", cmd.UserID),
				slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(response{
				Success: false,
				Error:   "command execution timed out",
			})
		}
		// Gameplay refusals travel as data so the caller can relay them
		// to the player verbatim.
		return c.Status(http.StatusOK).JSON(response{
			Success: false,
			Error:   err.Error(),
		})
	}
	return c.Status(http.StatusOK).JSON(response{
		Success:  true,
		Response: out,
	})
}
