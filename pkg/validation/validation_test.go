package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Status   string `json:"status" validate:"required,oneof=Pending Shipped"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	t.Parallel()

	err := New().Validate(&sample{Quantity: 0})
	require.Error(t, err)

	var fe *FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "status is required", fe.Fields["status"])
	assert.Contains(t, fe.Fields["quantity"], "greater than or equal to 1")

	he := HTTPError(err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestStrictBinderRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	e := echo.New()
	body := `{"status":"Pending","quantity":1,"admin":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var s sample
	err := (&StrictBinder{}).Bind(&s, c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestStrictBinderAcceptsKnownFields(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"Shipped","quantity":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var s sample
	require.NoError(t, (&StrictBinder{}).Bind(&s, c))
	assert.Equal(t, "Shipped", s.Status)
	assert.Equal(t, 2, s.Quantity)
}
