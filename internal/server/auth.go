package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/creachadair/jrpc2"

	"github.com/aquabalance/aquabalance/pkg/logger"
)

type rpcError struct {
	Code    jrpc2.Code `json:"code"`
	Message string     `json:"message"`
}

type rpcErrorResponse struct {
	Version string   `json:"jsonrpc"`
	Error   rpcError `json:"error"`
	ID      any      `json:"id"`
}

// requireToken rejects requests whose bearer token does not match secret
// with a JSON-RPC error body and status 401. An empty secret rejects every
// request.
func requireToken(secret string, l logger.Logger, next http.Handler) http.Handler {
	l = logger.OrNop(l)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validToken(secret, bearerToken(r)) {
			l.Warning("rejected unauthenticated %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(rpcErrorResponse{
				Version: "2.0",
				Error:   rpcError{Code: jrpc2.InvalidRequest, Message: "Unauthorized"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token of a Bearer Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// validToken compares in constant time.
func validToken(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
