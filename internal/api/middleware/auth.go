package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// adminTokenHeader заголовок с админским токеном
const adminTokenHeader = "X-Admin-Token"

const msgUnauthorized = "требуется админский токен"

// Auth проверяет админский токен для защищенных роутов
// Сравнение токенов выполняется за константное время
func Auth(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(adminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				handlers.RespondUnauthorized(w, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
