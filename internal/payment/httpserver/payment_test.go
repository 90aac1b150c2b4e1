package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	orderservice "github.com/Skotchmaster/ethnic_shop/internal/order/service"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/service"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidAmount, http.StatusBadRequest},
		{service.ErrSignatureMismatch, http.StatusBadRequest},
		{service.ErrGatewayUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", service.ErrUpstream), http.StatusBadGateway},
		{orderservice.ErrNotFound, http.StatusNotFound},
		{orderservice.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: already paid", orderservice.ErrConflict), http.StatusConflict},
		{orderservice.ErrInvalidTransition, http.StatusConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapError(tc.err).Code, tc.err.Error())
	}
}
