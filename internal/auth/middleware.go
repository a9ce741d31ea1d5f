package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"go-cord/pkg/chat"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func getSecret() string {
	return os.Getenv("APP_SECRET")
}

type AuthMiddleware struct {
}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

func GenerateToken(userID string, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(getSecret()))
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(getSecret()), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// VerifyIdentity is the verify(token) capability handed to the
// connection gate: token in, identity claims out.
func VerifyIdentity(tokenString string) (chat.Identity, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return chat.Identity{}, err
	}

	userID, okID := claims["user_id"].(string)
	username, okName := claims["username"].(string)
	if !okID || !okName || userID == "" {
		return chat.Identity{}, errors.New("malformed identity claims")
	}

	return chat.Identity{UserID: userID, Username: username}, nil
}

// BearerToken pulls the token from the Authorization header, falling
// back to the cookie set at login.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}

	token, err := c.Cookie("token")
	if err != nil {
		return ""
	}
	return token
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is missing"})
			c.Abort()
			return
		}

		identity, err := VerifyIdentity(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", identity.UserID)
		c.Set("username", identity.Username)

		c.Next()
	}
}
