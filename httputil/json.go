// httputil/json.go
package httputil

import (
	"encoding/json"
	"net/http"
	"reflect"

	"go.uber.org/zap"
)

// jsonLogger receives encoding failures that happen after headers are sent.
var jsonLogger = zap.NewNop()

// SetJSONLogger configures the logger used for JSON encoding errors.
// Call it once during startup.
func SetJSONLogger(logger *zap.Logger) {
	if logger != nil {
		jsonLogger = logger
	}
}

// WriteJSON writes a JSON response with the given status code.
//
// Invalid status codes (outside 100-599) are clamped to 500 Internal Server Error
// to prevent undefined behavior in net/http.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		typeName := "nil"
		if v != nil {
			typeName = reflect.TypeOf(v).String()
		}
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", typeName), zap.Error(err))
	}
}
