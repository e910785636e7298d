package sessionctx

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Provider is satisfied by *storefront.Manager.
type Provider interface {
	Session(ctx context.Context, id string) (*storefront.Session, error)
}

// Resolve loads the shopper session bound to the request by middleware.Session.
func Resolve(r *http.Request, sessions Provider) (*storefront.Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable")
	}
	ctx := r.Context()
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return sessions.Session(ctx, sessionID)
}

// ItemID reads and trims the {id} path parameter.
func ItemID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	return id, nil
}
