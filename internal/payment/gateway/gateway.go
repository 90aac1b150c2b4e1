package gateway

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sony/gobreaker"

	"github.com/Skotchmaster/ethnic_shop/pkg/breaker"
)

var ErrMalformedResponse = errors.New("malformed gateway response")

// Order is the gateway-side order a client completes checkout against.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	orders orderCreator
	cb     *gobreaker.CircuitBreaker
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{orders: client.Order, cb: breaker.New("razorpay")}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := breaker.Execute(r.cb, func() (map[string]interface{}, error) {
		return r.orders.Create(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return parseOrder(body)
}

func parseOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedResponse)
	}
	o := &Order{ID: id}
	o.Currency, _ = body["currency"].(string)
	o.Receipt, _ = body["receipt"].(string)
	o.Status, _ = body["status"].(string)

	switch v := body["amount"].(type) {
	case float64:
		o.Amount = int64(v)
	case int64:
		o.Amount = v
	case int:
		o.Amount = int64(v)
	}
	return o, nil
}
