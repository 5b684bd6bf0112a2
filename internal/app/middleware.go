package app

import (
	"errors"
	"net/http"

	"github.com/famledger/famledger/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(userMiddleware(deps.UserService))
}

// userMiddleware resolves the X-User-Id header to a user, registering it on
// first sight. Requests without the header continue anonymously.
func userMiddleware(userService user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			ctx := req.Context()

			if uid != "" {
				u, err := userService.Resolve(ctx, uid)
				if err != nil {
					if errors.Is(err, user.ErrInvalidUid) {
						http.Error(w, err.Error(), http.StatusBadRequest)
						return
					}
					log.Errorf("failed to resolve user %s: %v", uid, err)
					http.Error(w, "failed to resolve user", http.StatusInternalServerError)
					return
				}
				log.Tracef("request of user %s", u.Uid)
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
