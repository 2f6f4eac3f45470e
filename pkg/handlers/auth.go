// Package handlers contains HTTP handlers for MusicMate-Go. This file
// groups authentication related helpers and endpoints: account
// registration and login, the Spotify OAuth flow, and the signed-cookie
// session used to identify users on subsequent requests. CSRF
// protection is implemented with a random token stored in a cookie
// which clients must echo back in the `X-CSRF-Token` header for all
// state changing requests.

package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"MusicMate-Go/pkg/credentials"
)

// signValue computes an HMAC signature for value and appends it using
// the format value|signature. The signature is base64 URL encoded so it
// can be safely stored in cookies.
func signValue(value string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	sig := mac.Sum(nil)
	return value + "|" + base64.RawURLEncoding.EncodeToString(sig)
}

// verifyValue checks the HMAC signature appended to signed. It returns
// the original value and true when the signature matches the key.
func verifyValue(signed string, key []byte) (string, bool) {
	parts := strings.Split(signed, "|")
	if len(parts) != 2 {
		return "", false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(parts[0]))
	expected := mac.Sum(nil)
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !hmac.Equal(expected, sig) {
		return "", false
	}
	return parts[0], true
}

// setCSRFToken generates a new random token and sets it in a cookie.
// The cookie is not HttpOnly so client-side scripts can read the value
// and attach it to subsequent requests.
func setCSRFToken(w http.ResponseWriter, secure bool) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "csrf_token",
		Value:    token,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// verifyCSRF compares the X-CSRF-Token header with the csrf_token
// cookie in constant time.
func verifyCSRF(r *http.Request) bool {
	c, err := r.Cookie("csrf_token")
	if err != nil {
		return false
	}
	header := r.Header.Get("X-CSRF-Token")
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(header)) == 1
}

// userFromCookie returns the verified account ID from the session
// cookie. An error is returned when the cookie is missing or tampered.
func (app *Application) userFromCookie(r *http.Request) (int64, error) {
	c, err := r.Cookie("user_id")
	if err != nil {
		return 0, err
	}
	v, ok := verifyValue(c.Value, app.SignKey)
	if !ok {
		return 0, fmt.Errorf("invalid signature")
	}
	return strconv.ParseInt(v, 10, 64)
}

// requireUser enforces authentication. It writes a 401 response on
// failure and returns the account ID otherwise.
func (app *Application) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := app.userFromCookie(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return 0, false
	}
	// Enforce CSRF protection on state-changing requests.
	if r.Method != http.MethodGet && r.Method != http.MethodHead && !verifyCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return 0, false
	}
	return id, true
}

// setUserCookie stores the signed account ID for the session.
func (app *Application) setUserCookie(w http.ResponseWriter, r *http.Request, userID int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    signValue(strconv.FormatInt(userID, 10), app.SignKey),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// validUsername applies the registration rules: at least five
// characters and not purely numeric.
func validUsername(name string) bool {
	if len(name) < 5 {
		return false
	}
	for _, r := range name {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Register creates a new account. The password is hashed with bcrypt
// before it reaches the persistence layer.
func (app *Application) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validUsername(req.Username) {
		respondJSONError(w, http.StatusBadRequest, "username must be at least 5 characters and not purely numeric")
		return
	}
	if req.Password == "" || req.Password != req.ConfirmPassword {
		respondJSONError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}
	if _, err := app.DB.CreateUser(r.Context(), req.Username, string(hash)); err != nil {
		respondJSONError(w, http.StatusConflict, "username already exists")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "success", "message": "registration successful"})
}

// Login authenticates an account and establishes the session cookie
// plus a CSRF token. The client should follow up with /spotify/login to
// connect the user's Spotify account.
func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := app.DB.GetUserByUsername(r.Context(), req.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	app.setUserCookie(w, r, user.ID)
	if _, err := setCSRFToken(w, r.TLS != nil); err != nil {
		http.Error(w, "csrf token", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "spotify_login": "/spotify/login"})
}

// Logout clears the session cookies so the user must re-authenticate.
func (app *Application) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{Name: "csrf_token", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}

// SpotifyLogin begins the Spotify OAuth flow for the logged-in user and
// redirects to the authorization URL with a signed state cookie.
func (app *Application) SpotifyLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    signValue(state, app.SignKey),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, app.Credentials.AuthURL(state), http.StatusFound)
}

// SpotifyCallback completes the OAuth flow by exchanging the
// authorization code for a user-scoped token, which is persisted for
// the account so later requests can refresh it transparently.
func (app *Application) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	userID, err := app.userFromCookie(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	c, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	state, ok := verifyValue(c.Value, app.SignKey)
	if !ok || r.URL.Query().Get("state") != state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Path: "/", MaxAge: -1})

	token, err := app.Credentials.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		app.logger().WithError(err).Error("authorization code exchange failed")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	if err := app.DB.SaveToken(r.Context(), userID, token); err != nil {
		http.Error(w, "failed to store token", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// userToken loads the account's stored Spotify token and refreshes it
// when expired, persisting the replacement. A false return means a
// response has already been written: either the user never connected
// Spotify or the credential cannot be refreshed and the flow must be
// restarted via /spotify/login.
func (app *Application) userToken(w http.ResponseWriter, r *http.Request, userID int64) (*oauth2.Token, bool) {
	tok, err := app.DB.GetToken(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusUnauthorized, "spotify account not connected")
			return nil, false
		}
		http.Error(w, "failed to load token", http.StatusInternalServerError)
		return nil, false
	}
	fresh, err := app.Credentials.RefreshIfExpired(r.Context(), tok)
	if err != nil {
		if errors.Is(err, credentials.ErrCredentialExpired) {
			respondJSONError(w, http.StatusUnauthorized, "spotify authorization expired, please log in again")
			return nil, false
		}
		app.logger().WithError(err).Error("token refresh failed")
		http.Error(w, "failed to refresh token", http.StatusBadGateway)
		return nil, false
	}
	if fresh != tok {
		if err := app.DB.SaveToken(r.Context(), userID, fresh); err != nil {
			app.logger().WithError(err).Warn("failed to persist refreshed token")
		}
	}
	return fresh, true
}
