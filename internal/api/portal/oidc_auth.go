package portal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/one-edge/portal/internal/api/portal/session"
	"github.com/one-edge/portal/internal/random"
	"github.com/one-edge/portal/internal/user"
	"github.com/rs/zerolog/log"
	"net/http"
	"strings"
	"time"
)

var (
	cookieNameToken = "session_token"

	stateLength         = 16
	nonceLength         = 16
	cookieNameState     = "login_state"
	cookieLifetimeState = int(time.Hour.Seconds())
)

type oidcLoginFlowState struct {
	ID         string `json:"id"`
	Nonce      string `json:"nonce"`
	Afterwards string `json:"afterwards"`
}

type oidcIDTokenClaims struct {
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	SessionID         string `json:"sid"`
}

func (claims *oidcIDTokenClaims) displayName(subject string) string {
	switch {
	case claims.Name != "":
		return claims.Name
	case claims.PreferredUsername != "":
		return claims.PreferredUsername
	case claims.Email != "":
		return claims.Email
	}
	return subject
}

type oidcLogoutTokenClaims struct {
	SessionID string                     `json:"sid"`
	Events    map[string]json.RawMessage `json:"events"`
}

const backchannelLogoutEvent = "http://schemas.openid.net/event/backchannel-logout"

// EndpointOIDCLoginFlow handles the 'GET /v1/auth/oidc/login_flow' endpoint
func (service *Service) EndpointOIDCLoginFlow(writer http.ResponseWriter, request *http.Request) {
	afterwards := service.sanitizeAfterwards(request.URL.Query().Get("afterwards"))

	// Create and set the login flow state cookie
	state := oidcLoginFlowState{
		ID:         random.String(stateLength, random.CharsetAlphanumeric),
		Nonce:      random.String(nonceLength, random.CharsetAlphanumeric),
		Afterwards: afterwards,
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameState,
		Value:    base64.StdEncoding.EncodeToString(stateJSON),
		Path:     "/v1/auth/oidc",
		MaxAge:   cookieLifetimeState,
		Secure:   service.Config.IsPortalAPISecure(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Redirect the user to the authentication endpoint of the OIDC provider
	http.Redirect(writer, request, service.oidcOAuth2Config.AuthCodeURL(state.ID, oidc.Nonce(state.Nonce)), http.StatusFound)
}

// EndpointOIDCLoginCallback handles the 'GET /v1/auth/oidc/callback' endpoint
func (service *Service) EndpointOIDCLoginCallback(writer http.ResponseWriter, request *http.Request) {
	// Extract the state cookie
	stateCookie, err := request.Cookie(cookieNameState)
	if err != nil {
		service.loginFlowError(writer, http.StatusBadRequest, "no login flow initiated")
		return
	}
	stateJSON, err := base64.StdEncoding.DecodeString(stateCookie.Value)
	if err != nil {
		service.loginFlowError(writer, http.StatusBadRequest, "invalid state cookie")
		return
	}
	state := new(oidcLoginFlowState)
	if err := json.Unmarshal(stateJSON, state); err != nil {
		service.loginFlowError(writer, http.StatusBadRequest, "invalid state cookie")
		return
	}

	// Validate the state ID
	if request.URL.Query().Get("state") != state.ID {
		service.loginFlowError(writer, http.StatusBadRequest, "states do not match")
		return
	}

	// Unset the state cookie
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameState,
		Value:    "",
		Path:     "/v1/auth/oidc",
		MaxAge:   -1,
		HttpOnly: true,
	})

	// Retrieve the OAuth2 access token and extract and verify the ID token + nonce
	oauth2Token, err := service.oidcOAuth2Config.Exchange(request.Context(), request.URL.Query().Get("code"))
	if err != nil {
		service.loginFlowError(writer, http.StatusForbidden, "invalid login code (expired?)")
		return
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		service.writer.WriteInternalError(writer, errors.New("no 'id_token' field in OAuth2 access token; most likely an OIDC provider error"))
		return
	}
	idToken, err := service.oidcIDTokenVerifier.Verify(request.Context(), rawIDToken)
	if err != nil {
		service.writer.WriteInternalError(writer, errors.New("received invalid ID token; most likely an OIDC provider error"))
		return
	}
	if idToken.Nonce != state.Nonce {
		service.loginFlowError(writer, http.StatusForbidden, "nonces do not match")
		return
	}
	claims := new(oidcIDTokenClaims)
	if err := idToken.Claims(claims); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	// Create or refresh the user
	now := time.Now()
	obj, err := user.RecordLogin(request.Context(), service.Storage.Users(), &user.Login{
		ID:          idToken.Subject,
		DisplayName: claims.displayName(idToken.Subject),
		Email:       claims.Email,
		At:          now,
	})
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if obj == nil {
		service.writer.WriteInternalError(writer, errors.New("no user recorded for the login"))
		return
	}

	// Create the session holding the access token used against the Symphony API
	expires := oauth2Token.Expiry
	if expires.IsZero() {
		expires = now.Add(service.Config.SessionLifetime)
	}
	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	rawToken, err := service.SessionStorage.Create(request.Context(), &session.Create{
		UserID:      obj.ID,
		SessionID:   sessionID,
		AccessToken: oauth2Token.AccessToken,
		Expires:     expires.Unix(),
	})
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	log.Debug().Str("user", obj.ID).Time("expires", expires).Msg("created portal session")

	// Set the session token cookie
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameToken,
		Value:    rawToken,
		Path:     "/",
		Expires:  expires,
		Secure:   service.Config.IsPortalAPISecure(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	// Redirect the user to the URL specified on login flow initiating
	http.Redirect(writer, request, state.Afterwards, http.StatusFound)
}

// EndpointOIDCBackchannelLogout handles the 'POST /v1/auth/oidc/backchannel_logout' endpoint
func (service *Service) EndpointOIDCBackchannelLogout(writer http.ResponseWriter, request *http.Request) {
	rawLogoutToken := request.PostFormValue("logout_token")
	if rawLogoutToken == "" {
		service.loginFlowError(writer, http.StatusBadRequest, "missing logout token")
		return
	}

	logoutToken, err := service.oidcIDTokenVerifier.Verify(request.Context(), rawLogoutToken)
	if err != nil {
		service.loginFlowError(writer, http.StatusBadRequest, "invalid logout token")
		return
	}
	claims := new(oidcLogoutTokenClaims)
	if err := logoutToken.Claims(claims); err != nil {
		service.loginFlowError(writer, http.StatusBadRequest, "invalid logout token")
		return
	}
	if _, ok := claims.Events[backchannelLogoutEvent]; !ok || logoutToken.Nonce != "" {
		service.loginFlowError(writer, http.StatusBadRequest, "not a logout token")
		return
	}

	switch {
	case claims.SessionID != "":
		err = service.SessionStorage.TerminateBySessionID(request.Context(), claims.SessionID)
	case logoutToken.Subject != "":
		err = service.SessionStorage.TerminateByUserID(request.Context(), logoutToken.Subject)
	default:
		service.loginFlowError(writer, http.StatusBadRequest, "logout token lacks both 'sid' and 'sub'")
		return
	}
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	writer.Header().Set("Cache-Control", "no-store")
	writer.WriteHeader(http.StatusOK)
}

// EndpointLogout handles the 'POST /v1/auth/logout' endpoint
func (service *Service) EndpointLogout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(cookieNameToken); err == nil && cookie.Value != "" {
		if err := service.SessionStorage.TerminateByRawToken(request.Context(), cookie.Value); err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
	}
	unsetCookie(writer, cookieNameToken)
	writer.WriteHeader(http.StatusNoContent)
}

// sanitizeAfterwards only lets relative paths and URLs on the allowed front-end origin through to prevent open
// redirects
func (service *Service) sanitizeAfterwards(afterwards string) string {
	if strings.HasPrefix(afterwards, "/") && !strings.HasPrefix(afterwards, "//") && !strings.HasPrefix(afterwards, "/\\") {
		return afterwards
	}
	origin := strings.TrimSuffix(service.Config.PortalAPIAllowedOrigin, "/")
	if origin != "" && origin != "*" && (afterwards == origin || strings.HasPrefix(afterwards, origin+"/")) {
		return afterwards
	}
	return "/"
}
