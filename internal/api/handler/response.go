// internal/api/handler/response.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"remitflow-wallet/internal/util"
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

// UserIDHeader carries the authenticated user id set by the gateway in front of the engine.
const UserIDHeader = "X-User-ID"

type ctxKey int

const userIDKey ctxKey = iota

// ErrorBody is the error envelope returned on every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Authenticate rejects requests without a positive X-User-ID and stores the id in the context.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
		if err != nil || userID <= 0 {
			writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{
				Code:    util.KindUnauthorized.Code(),
				Kind:    util.KindUnauthorized.String(),
				Message: "missing or invalid " + UserIDHeader + " header",
			}})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID returns the authenticated user id stored by Authenticate.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("Failed to marshal JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps err onto its kind's HTTP status. Internal failures never leak their cause.
func respondWithError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *util.AppError
	if !errors.As(err, &appErr) {
		appErr = util.WrapError(util.KindTransferFailed, "transfer failed", err)
	}

	message := appErr.Message
	if appErr.Kind == util.KindTransferFailed {
		logger.Error("Unhandled service error", zap.Error(err))
		message = "Internal server error"
	}

	writeJSON(w, appErr.Kind.HTTPStatus(), ErrorBody{Error: ErrorDetail{
		Code:    appErr.Kind.Code(),
		Kind:    appErr.Kind.String(),
		Message: message,
	}})
}
