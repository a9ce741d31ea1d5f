package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestVerifyIdentity(t *testing.T) {
	t.Setenv("APP_SECRET", "test-secret")

	token, err := GenerateToken("user123", "testuser")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	t.Run("valid token yields identity", func(t *testing.T) {
		identity, err := VerifyIdentity(token)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if identity.UserID != "user123" {
			t.Errorf("Expected user id 'user123', got '%s'", identity.UserID)
		}
		if identity.Username != "testuser" {
			t.Errorf("Expected username 'testuser', got '%s'", identity.Username)
		}
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		if _, err := VerifyIdentity("garbage"); err == nil {
			t.Error("Expected error for garbage token")
		}
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		t.Setenv("APP_SECRET", "other-secret")
		foreign, err := GenerateToken("user123", "testuser")
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		t.Setenv("APP_SECRET", "test-secret")

		if _, err := VerifyIdentity(foreign); err == nil {
			t.Error("Expected error for token signed with wrong secret")
		}
	})
}

func TestRequireAuth(t *testing.T) {
	t.Setenv("APP_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewAuthMiddleware().RequireAuth())
	router.GET("/protected", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("username"))
	})

	token, err := GenerateToken("user123", "testuser")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "bearer header", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "cookie fallback", cookie: token, wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer garbage", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK && w.Body.String() != "testuser" {
				t.Errorf("Expected username in context, got '%s'", w.Body.String())
			}
		})
	}
}
