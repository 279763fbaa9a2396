package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxRole    contextKey = "actor_role"
	ctxVehicle contextKey = "vehicle"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// VehicleFromContext returns the courier's vehicle, nil for other roles.
func VehicleFromContext(ctx context.Context) *enums.Vehicle {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxVehicle).(*enums.Vehicle); ok {
		return v
	}
	return nil
}

// WithActor seeds the context the way Auth does; handler tests use it to
// bypass token minting.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.Role, vehicle *enums.Vehicle) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if vehicle != nil {
		ctx = context.WithValue(ctx, ctxVehicle, vehicle)
	}
	return ctx
}
