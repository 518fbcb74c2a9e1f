package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func captureLogs() *bytes.Buffer {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs()

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.GET("/contracts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest("GET", "/contracts?page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "request completed") {
		t.Error("Expected request completion log")
	}
	if !strings.Contains(out, "page=2") {
		t.Error("Expected query string in log")
	}
	if strings.Contains(out, "audit") {
		t.Error("GET requests must not emit an audit line")
	}
}

func TestRequestLoggerAudit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs()

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.POST("/contracts", func(c *gin.Context) {
		c.Set("username", "clerk")
		c.JSON(http.StatusOK, gin.H{"message": "created"})
	})

	req := httptest.NewRequest("POST", "/contracts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "audit") {
		t.Error("Expected audit line for POST request")
	}
	if !strings.Contains(out, "clerk") {
		t.Error("Expected acting user in audit line")
	}
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs()

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Error("Expected 5xx responses to log at error level")
	}
}
