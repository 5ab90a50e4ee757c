package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ams29/newagent/pkg/api/handler"
	"github.com/ams29/newagent/pkg/api/middleware"
)

// Server is the HTTP surface of the chat service, run as a worker in the
// service group.
type Server struct {
	srv *http.Server
}

func NewServer(
	addr string,
	authenticator middleware.Authenticator,
	chats *handler.Chats,
	events *handler.Events,
) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(authenticator))

		r.Post("/chats", chats.CreateChat)
		r.Route("/chats/{chatID}", func(r chi.Router) {
			r.Get("/messages", chats.ListMessages)
			r.Post("/messages", chats.SubmitMessage)
			r.Post("/messages/{messageID}/reaction", chats.SetReaction)
			r.Get("/events", events.Stream)
		})
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Name() string { return "http_server" }

func (s *Server) Run(ctx context.Context) error {
	slog.Info("Starting worker", "name", s.Name(), "addr", s.srv.Addr)
	defer slog.Info("Worker stopped", "name", s.Name())

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
