package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantStatus  int
		wantOrigin  string
		wantCredent string
	}{
		{"wildcard", []string{"*"}, "http://a.example", http.MethodPost, http.StatusTeapot, "http://a.example", ""},
		{"explicit", []string{"http://hr.example"}, "http://hr.example", http.MethodPost, http.StatusTeapot, "http://hr.example", "true"},
		{"denied", []string{"http://hr.example"}, "http://evil.example", http.MethodPost, http.StatusTeapot, "", ""},
		{"preflight", []string{"*"}, "http://a.example", http.MethodOptions, http.StatusOK, "http://a.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredent, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
