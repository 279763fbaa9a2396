package presence

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
)

// Identity tags a connection with who is on the other end. Vehicle is set
// only for courier connections and selects the vehicle group channel.
type Identity struct {
	Role    enums.Role
	UserID  uuid.UUID
	Vehicle enums.Vehicle
}

// Validate rejects malformed identities at admission time.
func (i Identity) Validate() error {
	if i.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "connection identity missing user id")
	}
	switch i.Role {
	case enums.RoleCourier:
		if !i.Vehicle.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("courier connection carries unknown vehicle %q", i.Vehicle))
		}
	case enums.RoleCustomer, enums.RoleManager, enums.RoleAdmin:
		if i.Vehicle != "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "vehicle is only valid on courier connections")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown connection role %q", i.Role))
	}
	return nil
}
