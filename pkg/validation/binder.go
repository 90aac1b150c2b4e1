package validation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// StrictBinder rejects JSON bodies carrying fields the target struct does not
// declare. Path and query binding is delegated to echo's DefaultBinder.
type StrictBinder struct {
	echo.DefaultBinder
}

func (b *StrictBinder) Bind(i any, c echo.Context) error {
	if err := b.BindPathParams(c, i); err != nil {
		return err
	}

	req := c.Request()
	switch req.Method {
	case http.MethodGet, http.MethodDelete, http.MethodHead:
		if err := b.BindQueryParams(c, i); err != nil {
			return err
		}
	}
	if req.ContentLength == 0 || req.Body == nil {
		return nil
	}

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		dec := json.NewDecoder(req.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(i); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
		return nil
	}
	return b.BindBody(c, i)
}
