package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платежного шлюза
// Все вызовы ограничены таймаутом; таймаут трактуется как недоступность
// шлюза (ErrGatewayUnavailable), а не как отказ в оплате
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платежного шлюза
func NewClient(baseURL, apiKey string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// CreateCheckout создает платежную сессию и возвращает URL hosted-страницы оплаты
func (c *Client) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	url := fmt.Sprintf("%s/v1/checkouts", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Таймаут и сетевые сбои — недоступность шлюза, повтор безопасен
		c.log.Error("CreateCheckout: gateway request failed for reference=%s: %v", req.Reference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Продолжаем обработку
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.Error("CreateCheckout: gateway returned %d for reference=%s", resp.StatusCode, req.Reference)
		return nil, fmt.Errorf("%w: status code %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrPaymentDeclined
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.log.Info("CreateCheckout: checkout created for reference=%s, gateway_reference=%s",
		req.Reference, checkout.Reference)
	return &checkout, nil
}

// VerifyTransaction проверяет статус транзакции в шлюзе
// Используется обработчиком платежного webhook'а: бронирование подтверждается
// только после успешной проверки, а не по содержимому webhook'а
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s", c.baseURL, reference)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("VerifyTransaction: gateway request failed for reference=%s: %v", reference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Продолжаем обработку
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTransactionNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.Error("VerifyTransaction: gateway returned %d for reference=%s", resp.StatusCode, reference)
		return nil, fmt.Errorf("%w: status code %d", ErrGatewayUnavailable, resp.StatusCode)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &tx, nil
}

// IsRetryable возвращает true, если ошибку шлюза имеет смысл повторить
func IsRetryable(err error) bool {
	if errors.Is(err, ErrGatewayUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
