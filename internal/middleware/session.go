package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/bracketiq/bracketiq/internal/httputil"
	"github.com/bracketiq/bracketiq/internal/store"
	users "github.com/bracketiq/bracketiq/internal/user"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

// WithSessionUser attaches the session's user to the request context,
// creating a user row the first time a session shows up. Brackets need
// an owner even though there is no login flow.
func WithSessionUser(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), "userID")

			userID, err := uuid.Parse(userIDStr)
			if userIDStr == "" || err != nil {
				userID = uuid.New()
				u := &users.User{
					ID:       userID,
					Username: fmt.Sprintf("guest_%.8s", userID.String()),
				}
				if err := userStore.CreateUser(r.Context(), u); err != nil {
					httputil.InternalServerError(w, "Failed to create session user", err)
					return
				}
				sessionManager.Put(r.Context(), "userID", userID.String())
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)

			// Add the user to context so that we can easily get it whenever we want
			user, err := userStore.GetUser(ctx, userID)
			if err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetSessionUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
