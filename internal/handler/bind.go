package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
)

const maxMultipartMemory = 1 << 20

// bindBody decodes a JSON or form-encoded request body into a field map.
// Form fields keep their first value. An empty or untyped body yields an
// empty map.
func bindBody(c echo.Context) (map[string]any, error) {
	req := c.Request()
	fields := map[string]any{}

	ctype := req.Header.Get(echo.HeaderContentType)
	if ctype == "" {
		return fields, nil
	}
	mediaType, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q", domain.ErrInvalidInput, ctype)
	}

	switch mediaType {
	case echo.MIMEApplicationJSON:
		if err := json.NewDecoder(req.Body).Decode(&fields); err != nil {
			if errors.Is(err, io.EOF) {
				return fields, nil
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	case echo.MIMEApplicationForm:
		// Request.ParseForm ignores DELETE bodies, so read the body directly.
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		copyFirst(fields, values)
	case echo.MIMEMultipartForm:
		if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		copyFirst(fields, req.MultipartForm.Value)
	}
	return fields, nil
}

// queryFilter returns the first value of every query parameter.
func queryFilter(c echo.Context) map[string]string {
	params := c.QueryParams()
	query := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return query
}

// projectParam returns the project name from the request path. echo matches
// on the decoded path unless the URL carries a RawPath, in which case the
// param is still escaped.
func projectParam(c echo.Context) string {
	raw := c.Param("project")
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func copyFirst(dst map[string]any, src map[string][]string) {
	for k, v := range src {
		if len(v) > 0 {
			dst[k] = v[0]
		}
	}
}
