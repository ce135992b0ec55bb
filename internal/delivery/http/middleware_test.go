package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://app.recipelens.dev",
			allowedOrigins: []string{"https://app.recipelens.dev"},
			want:           true,
		},
		{
			name:           "wildcard port match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "https://app.recipelens.dev",
			allowedOrigins: []string{"http://localhost:*", "https://app.recipelens.dev"},
			want:           true,
		},
		{
			name:           "any origin",
			origin:         "https://example.org",
			allowedOrigins: []string{"*"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{"allowed origin - GET request", "http://localhost:3000", "GET", http.StatusOK, true},
		{"allowed origin - OPTIONS request", "http://localhost:3000", "OPTIONS", http.StatusNoContent, true},
		{"disallowed origin", "http://evil.com", "GET", http.StatusOK, false},
		{"no origin header", "", "GET", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"http://localhost:*"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Errorf("Access-Control-Allow-Credentials not set to true")
				}
				if w.Header().Get("Access-Control-Expose-Headers") != RequestIDHeader {
					t.Errorf("Access-Control-Expose-Headers should expose %s", RequestIDHeader)
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set for disallowed origin, got %s", corsHeader)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	newRouter := func(seen *string) *gin.Engine {
		router := gin.New()
		router.Use(RequestIDMiddleware())
		router.GET("/test", func(c *gin.Context) {
			*seen = c.GetString("request_id")
			c.String(http.StatusOK, "OK")
		})
		return router
	}

	t.Run("generates an ID when none is sent", func(t *testing.T) {
		var seen string
		w := httptest.NewRecorder()
		newRouter(&seen).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		got := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("%s = %q, want a UUID: %v", RequestIDHeader, got, err)
		}
		if seen != got {
			t.Errorf("context request_id = %q, want %q", seen, got)
		}
	})

	t.Run("propagates an incoming ID", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-abc")
		w := httptest.NewRecorder()
		newRouter(&seen).ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "trace-abc" {
			t.Errorf("%s = %q, want trace-abc", RequestIDHeader, got)
		}
		if seen != "trace-abc" {
			t.Errorf("context request_id = %q, want trace-abc", seen)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	newRouter := func(perMinute int) *gin.Engine {
		router := gin.New()
		router.Use(RateLimitMiddleware(perMinute))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})
		return router
	}

	do := func(router *gin.Engine, remoteAddr string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("rejects requests past the burst", func(t *testing.T) {
		router := newRouter(3)
		for i := 0; i < 3; i++ {
			if code := do(router, "10.0.0.1:1234"); code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want %d", i, code, http.StatusOK)
			}
		}
		if code := do(router, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
			t.Errorf("Status = %d, want %d", code, http.StatusTooManyRequests)
		}
	})

	t.Run("limits each IP separately", func(t *testing.T) {
		router := newRouter(1)
		if code := do(router, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", code, http.StatusOK)
		}
		if code := do(router, "10.0.0.2:1234"); code != http.StatusOK {
			t.Errorf("second IP: Status = %d, want %d", code, http.StatusOK)
		}
	})

	t.Run("zero disables limiting", func(t *testing.T) {
		router := newRouter(0)
		for i := 0; i < 50; i++ {
			if code := do(router, "10.0.0.1:1234"); code != http.StatusOK {
				t.Fatalf("request %d: Status = %d, want %d", i, code, http.StatusOK)
			}
		}
	})
}
