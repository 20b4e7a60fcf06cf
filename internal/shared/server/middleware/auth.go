package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/auth"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
)

const (
	// userIDKey is read directly by request logging and error responses.
	userIDKey   = "userId"
	identityKey = "identity"

	invalidToken = "Invalid or expired session. Please sign in again."
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Identity is the verified caller.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
}

// Auth verifies an optional Supabase bearer token. Requests without one
// continue anonymously; a present but bad token is rejected with 401.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if c.Request.Method == http.MethodOptions || strings.TrimSpace(raw) == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(raw)
		if !ok || verifier == nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", invalidToken, nil)
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil || claims.Subject == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", invalidToken, nil)
			return
		}
		SetIdentity(c, Identity{
			UserID:  claims.Subject,
			Email:   claims.Email,
			Name:    claims.UserMetadata.DisplayName(),
			Picture: claims.UserMetadata.AvatarURL,
		})
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser rejects requests that carry no verified identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Sign in required", nil)
			return
		}
		c.Next()
	}
}

// SetIdentity stores id on the request.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(userIDKey, id.UserID)
	c.Set(identityKey, id)
}

// IdentityFromContext returns the caller, or the zero Identity when anonymous.
func IdentityFromContext(c *gin.Context) Identity {
	if c == nil {
		return Identity{}
	}
	id, _ := c.Get(identityKey)
	out, _ := id.(Identity)
	if out.UserID == "" {
		out.UserID = c.GetString(userIDKey)
	}
	return out
}

func UserIDFromContext(c *gin.Context) string { return IdentityFromContext(c).UserID }

func UserEmailFromContext(c *gin.Context) string { return IdentityFromContext(c).Email }

func UserNameFromContext(c *gin.Context) string { return IdentityFromContext(c).Name }

func UserPictureFromContext(c *gin.Context) string { return IdentityFromContext(c).Picture }
