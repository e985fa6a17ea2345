package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// OrderAPIClient talks to the remote order-management API over HTTP.
type OrderAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewOrderAPIClient(baseURL, token string, timeout time.Duration) *OrderAPIClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OrderAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiEnvelope matches utils.JSONResponse on the server side.
type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (c *OrderAPIClient) do(ctx context.Context, op, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError(op, err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"op":         op,
		"status":     resp.StatusCode,
		"latency":    time.Since(start),
		"request_id": requestID,
	}).Debug("order API call")

	var env apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return &Error{Kind: KindNetwork, Op: op, Message: "malformed response", Err: err}
		}
	}

	if resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, env.Code, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindNetwork, Op: op, Message: "malformed response data", Err: err}
		}
	}
	return nil
}

// statusError trusts the error code of the envelope when the server sent
// a known one and falls back to the HTTP status otherwise.
func statusError(op string, code int, kind, message string) error {
	if message == "" {
		message = http.StatusText(code)
	}
	switch ErrorKind(kind) {
	case KindValidation, KindState, KindNotFound:
		return &Error{Kind: ErrorKind(kind), Op: op, Message: message}
	case KindNetwork:
		return &Error{Kind: KindNetwork, Op: op, Message: fmt.Sprintf("order API upstream failed: %s", message)}
	}
	switch {
	case code == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Message: message}
	case code == http.StatusConflict:
		return &Error{Kind: KindState, Op: op, Message: message}
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Op: op, Message: message}
	default:
		return &Error{Kind: KindNetwork, Op: op, Message: fmt.Sprintf("order API returned %d: %s", code, message)}
	}
}

func (c *OrderAPIClient) CreateOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var order models.Order
	body := map[string]uint{"table_id": tableID}
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderAPIClient) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "get_order", http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderAPIClient) AddOrderItem(ctx context.Context, orderID uint, req models.OrderItemRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "add_order_item", http.MethodPost, fmt.Sprintf("/orders/%d/items", orderID), req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderAPIClient) UpdateOrderItem(ctx context.Context, orderID, itemID uint, req models.OrderItemRequest) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/orders/%d/items/%d", orderID, itemID)
	if err := c.do(ctx, "update_order_item", http.MethodPatch, path, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderAPIClient) DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*DeleteItemResult, error) {
	var result DeleteItemResult
	path := fmt.Sprintf("/orders/%d/items/%d", orderID, itemID)
	if err := c.do(ctx, "delete_order_item", http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *OrderAPIClient) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*StatusUpdateResult, error) {
	var result StatusUpdateResult
	body := map[string]models.OrderStatus{"status": status}
	if err := c.do(ctx, "update_order_status", http.MethodPut, fmt.Sprintf("/orders/%d/status", orderID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *OrderAPIClient) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, "create_payment", http.MethodPost, "/payments", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
