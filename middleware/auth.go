package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Claims is the payload of the bearer tokens issued to clinic users.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for actor valid for ttl.
func GenerateToken(secret []byte, actor authorize.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.UserID,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", actor.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a signed token and returns the actor it names.
func ParseToken(secret []byte, raw string) (authorize.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return authorize.Actor{}, err
	}
	if !token.Valid {
		return authorize.Actor{}, errors.New("invalid token")
	}
	role := authorize.Role(strings.ToLower(claims.Role))
	if _, ok := authorize.KnownRoles[role]; !ok {
		return authorize.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	if claims.UserID == 0 {
		return authorize.Actor{}, errors.New("token has no user_id")
	}
	return authorize.Actor{UserID: claims.UserID, Role: role}, nil
}

// Authenticate requires an "Authorization: Bearer <jwt>" header and stores
// the caller on the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || raw == "" || raw == header {
			rejectUnauthorized(c, "Missing bearer token", errors.New("authorization header is required"))
			return
		}

		actor, err := ParseToken(secret, raw)
		if err != nil {
			rejectUnauthorized(c, "Invalid or expired token", err)
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

func rejectUnauthorized(c *gin.Context, msg string, err error) {
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventUnauthorizedAccess,
		IP:        c.ClientIP(),
		RequestID: GetRequestID(c),
		Resource:  c.Request.URL.Path,
		Message:   fmt.Sprintf("%s: %v", msg, err),
	})
	util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: msg, Err: err})
	c.Abort()
}
