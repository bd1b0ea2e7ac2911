package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/threadlane/threadlane-backend/api/middleware"
	"github.com/threadlane/threadlane-backend/internal/cart"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
)

// resolveOwner builds the cart identity for the request: the signed-in user
// when present, the anonymous session token otherwise.
func resolveOwner(ctx context.Context) (cart.Owner, error) {
	if raw := middleware.UserIDFromContext(ctx); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return cart.Owner{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		return cart.Owner{UserID: &userID}, nil
	}
	if token := middleware.CartSessionFromContext(ctx); token != "" {
		return cart.Owner{SessionToken: &token}, nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
}

func userIDFromContext(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
