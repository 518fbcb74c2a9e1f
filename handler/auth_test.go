package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jisalute/PD/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 1},
		Users: []config.User{
			{Username: "admin", PasswordHash: string(hash), Role: "admin"},
		},
	}
}

func TestLogin(t *testing.T) {
	handler := NewAuthHandler(testConfig(t))

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{"valid credentials", map[string]string{"username": "admin", "password": "secret123"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "admin", "password": "wrong"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "secret123"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to parse response: %v", err)
				}
				if resp.Token == "" {
					t.Error("Expected non-empty token")
				}
				if resp.Username != "admin" || resp.Role != "admin" {
					t.Errorf("Unexpected user info: %+v", resp)
				}
			}
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	handler := NewAuthHandler(testConfig(t))

	router := gin.New()
	router.GET("/auth/me", func(c *gin.Context) {
		c.Set("username", "admin")
		c.Set("role", "admin")
		handler.GetCurrentUser(c)
	})

	req := httptest.NewRequest("GET", "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["username"] != "admin" || resp["role"] != "admin" {
		t.Errorf("Unexpected response: %v", resp)
	}
}
