// Package auth provides cookie sessions, account handlers and request
// throttling for the API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Contour/internal/repo"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	loginKey  contextKey = "userLogin"
)

// CookieName is the session cookie set on login and register.
const CookieName = "session_token"

const tokenTTL = 30 * 24 * time.Hour

type Authenv struct {
	JWTkey       []byte
	Repo         repo.Repository
	Logger       *slog.Logger
	SecureCookie bool

	validate *validator.Validate
	now      func() time.Time
}

func NewAuthenv(key []byte, r repo.Repository, logger *slog.Logger, secureCookie bool) *Authenv {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Authenv{
		JWTkey:       key,
		Repo:         r,
		Logger:       logger,
		SecureCookie: secureCookie,
		validate:     validator.New(),
		now:          time.Now,
	}
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Email    string `json:"email" validate:"required,email"`
}

// Claims is what a session token carries.
type Claims struct {
	UserID int
	Login  string
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// IssueToken signs a session token for the user.
func (env *Authenv) IssueToken(userID int, login string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"login":   login,
		"exp":     env.now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(env.JWTkey)
}

// ParseToken verifies a session token and extracts its claims.
func (env *Authenv) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return env.JWTkey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(env.now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return Claims{}, errors.New("token has no user_id")
	}
	login, ok := claims["login"].(string)
	if !ok || login == "" {
		return Claims{}, errors.New("token has no login")
	}
	return Claims{UserID: int(userID), Login: login}, nil
}

// UserFromContext returns the authenticated user attached by AuthMiddleware
// or OptionalUser.
func UserFromContext(ctx context.Context) (int, string, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	if !ok || id == 0 {
		return 0, "", false
	}
	login, _ := ctx.Value(loginKey).(string)
	return id, login, true
}

func withUser(ctx context.Context, c Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, c.UserID)
	return context.WithValue(ctx, loginKey, c.Login)
}

// AuthMiddleware rejects requests without a valid session cookie.
func (env *Authenv) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := env.ParseToken(cookie.Value)
		if err != nil {
			env.Logger.Debug("rejected session token", "error", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
	})
}

// OptionalUser attaches the session user when a valid cookie is present and
// passes anonymous requests through unchanged.
func (env *Authenv) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(CookieName); err == nil {
			if claims, err := env.ParseToken(cookie.Value); err == nil {
				r = r.WithContext(withUser(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (env *Authenv) addCookie(w http.ResponseWriter, userID int, login string) error {
	tokenString, err := env.IssueToken(userID, login)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Expires:  env.now().Add(tokenTTL),
		Path:     "/",
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (env *Authenv) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	req.Email = strings.TrimSpace(req.Email)
	if err := env.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, describe(err))
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}
	id, err := env.Repo.CreateUser(r.Context(), req.Login, req.Email, hashedPassword)
	if errors.Is(err, repo.ErrUserExists) {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		env.Logger.Error("create user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := env.addCookie(w, id, req.Login); err != nil {
		env.Logger.Error("issue token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Token error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "login": req.Login})
}

// AuthHandler logs a user in.
func (env *Authenv) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if err := env.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, describe(err))
		return
	}

	id, storedHash, err := env.Repo.GetByLogin(r.Context(), req.Login)
	if err != nil {
		env.Logger.Error("lookup user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if id == 0 || bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}
	if err := env.addCookie(w, id, req.Login); err != nil {
		env.Logger.Error("issue token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Token error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "login": req.Login})
}

func (env *Authenv) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
