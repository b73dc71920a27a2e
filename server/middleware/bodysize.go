package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/util"
)

const defaultMaxBodySize = 100 << 20

// BodySizeLimit caps request bodies at maxSize ("10MB", "512KB"). Reads past
// the limit fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeTooLarge(w, size)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooLarge(w http.ResponseWriter, limit int64) {
	appErr := apperrors.PayloadTooLarge(limit)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
