package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/ethnic_shop/internal/order/service"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: items", service.ErrValidation), http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: Delivered -> Pending", service.ErrInvalidTransition), http.StatusConflict},
		{service.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: db down", service.ErrUpstream), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestMapErrorHidesUpstreamDetail(t *testing.T) {
	he := MapError(fmt.Errorf("%w: dial tcp 10.0.0.5:5432", service.ErrUpstream))
	assert.Equal(t, http.StatusBadGateway, he.Code)
	assert.Equal(t, "Bad Gateway", he.Message)
	assert.Error(t, he.Internal)

	he = MapError(fmt.Errorf("%w: shipping address is incomplete", service.ErrValidation))
	assert.Contains(t, he.Message, "shipping address")
}
