package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Role    enums.Role
	Vehicle *enums.Vehicle
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
// Vehicle is present only for courier tokens.
type AccessTokenClaims struct {
	UserID  uuid.UUID      `json:"user_id"`
	Role    enums.Role     `json:"role"`
	Vehicle *enums.Vehicle `json:"vehicle,omitempty"`
	jwt.RegisteredClaims
}
