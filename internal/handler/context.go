package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
)

type ContextKey string

var (
	ActorCtxKey   ContextKey = "actor"
	ShiftIDCtxKey ContextKey = "shiftID"
)

func actorFrom(r *http.Request) lifecycle.Actor {
	return r.Context().Value(ActorCtxKey).(lifecycle.Actor)
}

func shiftIDFrom(r *http.Request) uuid.UUID {
	return r.Context().Value(ShiftIDCtxKey).(uuid.UUID)
}
