package portal

import (
	"context"
	"errors"
	"github.com/one-edge/portal/internal/api/portal/session"
	"github.com/one-edge/portal/internal/api/schema"
	"github.com/one-edge/portal/internal/user"
	"net/http"
)

type contextKey string

const (
	contextValueSession contextKey = "session"
	contextValueUser    contextKey = "user"
)

// MiddlewareResolveSession resolves the session referenced by the session token cookie and injects it into the request
// context.
// Requests without a live session continue anonymously; a stale session token cookie is removed.
func (service *Service) MiddlewareResolveSession(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		rawToken := ""
		if cookie, err := request.Cookie(cookieNameToken); err == nil {
			rawToken = cookie.Value
		}

		ses, err := session.Resolve(request.Context(), service.SessionStorage, rawToken)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if ses == nil && rawToken != "" {
			unsetCookie(writer, cookieNameToken)
		}

		if ses != nil {
			request = request.WithContext(context.WithValue(request.Context(), contextValueSession, ses))
		}
		next(writer, request)
	}
}

// MiddlewareVerifySession makes sure that the requesting client has a live session.
// It has to run after MiddlewareResolveSession.
func (service *Service) MiddlewareVerifySession(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if sessionFromContext(request.Context()) == nil {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}
		next(writer, request)
	}
}

// MiddlewareFetchUser loads the user owning the verified session and injects it into the request context.
// Sessions of users that no longer exist are terminated.
func (service *Service) MiddlewareFetchUser(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ses := sessionFromContext(request.Context())
		if ses == nil {
			service.writer.WriteInternalError(writer, errors.New("user fetch without session verification"))
			return
		}

		obj, err := service.Storage.Users().GetByID(request.Context(), ses.UserID)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if obj == nil {
			if err := service.SessionStorage.TerminateByUserID(request.Context(), ses.UserID); err != nil {
				service.writer.WriteInternalError(writer, err)
				return
			}
			unsetCookie(writer, cookieNameToken)
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		request = request.WithContext(context.WithValue(request.Context(), contextValueUser, obj))
		next(writer, request)
	}
}

// sessionFromContext returns the session injected by MiddlewareResolveSession or nil for anonymous requests
func sessionFromContext(ctx context.Context) *session.Session {
	ses, _ := ctx.Value(contextValueSession).(*session.Session)
	return ses
}

func userFromContext(ctx context.Context) *user.User {
	obj, _ := ctx.Value(contextValueUser).(*user.User)
	return obj
}

func unsetCookie(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
