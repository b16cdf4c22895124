package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Store handles control-surface logins: bcrypt user records in redis and a
// securecookie session.
type Store struct {
	sc  *securecookie.SecureCookie
	rdb *redis.Client
}

type ctxKey string

const userKey ctxKey = "user"

const userPrefix = "atov:user:"

func NewStore(rdb *redis.Client, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((14 * 24 * time.Hour).Seconds()))
	return &Store{sc: sc, rdb: rdb}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, userPrefix+username, hash, 0).Err()
}

func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	hash, err := s.rdb.Get(ctx, userPrefix+username).Result()
	if err == redis.Nil {
		return errors.New("invalid credentials")
	}
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if !CheckPassword(hash, password) {
		return errors.New("invalid credentials")
	}
	return nil
}

type Session struct {
	Username string
}

const cookieName = "atov_session"

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, username string) error {
	val := map[string]any{"user": username, "v": 1}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	val := map[string]any{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return Session{}, false
	}
	user, ok := val["user"].(string)
	if !ok || user == "" {
		return Session{}, false
	}
	return Session{Username: user}, true
}

func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, sess.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey).(string)
	return u, ok
}
