package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	captureout "fieldcap/internal/modules/capture/port/out"
)

// Claims is the payload of the enumerator session token.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTIdentity reads the signed-in enumerator from an HS256 token file. A missing or empty
// file means nobody is signed in.
type JWTIdentity struct {
	tokenPath string
	key       string
	issuer    string
}

var _ captureout.Identity = (*JWTIdentity)(nil)

func NewJWTIdentity(tokenPath, key, issuer string) *JWTIdentity {
	return &JWTIdentity{tokenPath: tokenPath, key: key, issuer: issuer}
}

func (j *JWTIdentity) CurrentUserID(ctx context.Context) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	raw, err := os.ReadFile(j.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read identity token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return 0, false, nil
	}
	claims, err := ParseToken(token, j.key, j.issuer)
	if err != nil {
		return 0, false, err
	}
	userID := claims.UserID
	if userID == 0 {
		userID, _ = strconv.ParseInt(claims.Subject, 10, 64)
	}
	if userID <= 0 {
		return 0, false, nil
	}
	return userID, true, nil
}

func ParseToken(token, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse identity token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid identity token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("identity token issuer mismatch")
	}
	return *claims, nil
}

// IssueToken signs a session token for userID. ttl <= 0 issues a token without expiry.
func IssueToken(userID int64, key, issuer string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// WriteToken stores a token where JWTIdentity will find it.
func WriteToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
