package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

type sessionCodec interface {
	Load(r *http.Request) (session.Data, bool)
	Save(w http.ResponseWriter, data session.Data) error
}

// Session resolves the caller's session handle, minting and setting a cookie
// when the request carries none (or an invalid one).
func Session(codec sessionCodec, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, fresh := codec.Load(r)
			ctx := WithSessionID(r.Context(), data.ID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, data.ID)
			}

			if fresh {
				if err := codec.Save(w, data); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session"))
					return
				}
				if logg != nil {
					logg.Debug(ctx, "session.issued")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
