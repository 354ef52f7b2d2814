package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/PabloGalante/heartdx/internal/domain"
)

const defaultTokenTTL = 72 * time.Hour

// TokenStore keeps the signed-in account between process runs as an HS256
// token on disk.
type TokenStore struct {
	path   string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenStore(path, secret string) *TokenStore {
	return &TokenStore{
		path:   path,
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
}

func (s *TokenStore) Save(uid domain.UserID) error {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = string(uid)
	claims["iat"] = s.now().Unix()
	claims["exp"] = s.now().Add(s.ttl).Unix()

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(signed), 0o600)
}

// Load returns the account stored in the token file, or "" when there is
// no file.
func (s *TokenStore) Load() (domain.UserID, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(string(raw), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("session token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("session token has unexpected claims")
	}
	uid, _ := claims["user_id"].(string)
	if uid == "" {
		return "", errors.New("session token has no user_id")
	}
	return domain.UserID(uid), nil
}

func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
