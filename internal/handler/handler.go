package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gorilla/websocket"
	"github.com/hubshift/marketplace/backend/internal/config"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
	"github.com/hubshift/marketplace/backend/internal/live"
	"github.com/hubshift/marketplace/backend/internal/ratelimit"
)

// UserStore is the part of the repository the handlers read users from.
type UserStore interface {
	lifecycle.Directory
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Limiters throttle the two endpoints professionals hammer. Nil limiters allow everything.
type Limiters struct {
	ClockIn *ratelimit.Limiter
	Accept  *ratelimit.Limiter
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	users      UserStore
	engine     *lifecycle.Engine
	translator ut.Translator
	limiters   Limiters
	hub        *live.Hub
	location   *time.Location
	upgrader   websocket.Upgrader

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, users UserStore, engine *lifecycle.Engine, hub *live.Hub, limiters Limiters) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.Calendar.TimeZone, err)
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		users:      users,
		engine:     engine,
		translator: trans,
		limiters:   limiters,
		hub:        hub,
		location:   loc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below needs a session cookie
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/me", h.GetMe)
		r.Get("/ws", h.ServeLiveFeed)

		r.Route("/shifts", func(r chi.Router) {
			business := h.RequiredRole(domain.RoleBusiness)

			r.With(business).Post("/", h.CreateShift)
			r.Get("/", h.ListShifts)
			r.With(business).Post("/copy-previous-week", h.CopyPreviousWeek)
			r.With(business).Post("/publish-all", h.PublishAllDrafts)
			r.With(business).Get("/timesheet", h.DownloadTimesheet)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftID)
				r.Get("/", h.GetShift)
				r.Patch("/", h.UpdateShift)
				r.Delete("/", h.DeleteShift)
				r.Get("/events", h.GetShiftEvents)
				r.Post("/publish", h.PublishShift)
				r.Post("/invite", h.InviteToShift)
				r.With(h.rateLimit(h.limiters.Accept)).Post("/accept", h.AcceptShift)
				r.Post("/decline", h.DeclineShift)
				r.Post("/cancel", h.CancelShift)
				r.With(h.rateLimit(h.limiters.ClockIn)).Post("/clock-in", h.ClockIn)
				r.Post("/finish", h.FinishShift)
				r.Post("/complete", h.CompleteShift)
			})
		})
	})
}
