// Package service holds Realpick's business rules. Services are constructed
// once in the app package and shared by the HTTP handlers.
package service

import (
	"time"

	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// Actor is the authenticated caller of an operation. A nil Actor means the
// request carried no valid session.
type Actor struct {
	UserID  string
	Email   string
	IsAdmin bool
}

func requireActor(a *Actor) error {
	if a == nil || a.UserID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	return nil
}

func requireAdmin(a *Actor) error {
	if err := requireActor(a); err != nil {
		return err
	}
	if !a.IsAdmin {
		return apperrors.Forbidden("admin privileges required")
	}
	return nil
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
