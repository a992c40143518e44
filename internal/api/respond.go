package api

import (
	"encoding/json"
	"net/http"
	"net/netip"
	"strings"
)

// envelope is the common success response shape. Feature payloads are
// merged in by the handlers.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, payload envelope) {
	out := envelope{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}

// writeError emits the {"success":false,"error":...} shape. Messages are
// short and human-readable; internal details stay in the logs.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "error": msg})
}

func writeRateLimited(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "daily limit reached, try again tomorrow")
}

// clientIP extracts the caller address: first X-Forwarded-For hop when the
// request came through a proxy, else the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if addr, err := netip.ParseAddr(first); err == nil {
			return addr.String()
		}
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx > 0 && !strings.HasSuffix(host, "]") {
		host = host[:idx]
	}
	host = strings.Trim(host, "[]")
	return host
}
