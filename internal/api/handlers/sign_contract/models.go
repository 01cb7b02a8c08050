package sign_contract

import (
	"net"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/service/contracts/models"
)

// SignContractRequest HTTP request model
type SignContractRequest struct {
	SignedByName  string `json:"signedByName"`
	SignatureData string `json:"signatureData"`
	SignatureType string `json:"signatureType"` // typed / drawn
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
// IP подписанта берется из запроса для аудита
func (r *SignContractRequest) ToServiceRequest(httpReq *http.Request) *models.SignContractRequest {
	return &models.SignContractRequest{
		SignedByName:  r.SignedByName,
		SignatureData: r.SignatureData,
		SignatureType: r.SignatureType,
		SignerIP:      clientIP(httpReq),
	}
}

// clientIP извлекает IP клиента с учетом прокси
func clientIP(r *http.Request) *string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip != "" {
			return &ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return nil
		}
		addr := r.RemoteAddr
		return &addr
	}
	return &host
}
