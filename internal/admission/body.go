package admission

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	rawBodyKey    = "admission.raw_body"
	parsedBodyKey = "admission.parsed_body"
)

var errBodyNotObject = errors.New("request body is not a JSON object")

// readBody reads the request body once, caches it on the context and
// restores c.Request.Body so later readers (handlers, binding) still see it.
func readBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(rawBodyKey); ok {
		return v.([]byte), nil
	}
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		c.Set(rawBodyKey, []byte(nil))
		return nil, nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	_ = c.Request.Body.Close()
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	c.Set(rawBodyKey, raw)
	return raw, nil
}

// jsonObject decodes the body as a JSON object. An empty body yields a nil
// map and no error.
func jsonObject(c *gin.Context) (map[string]any, error) {
	if v, ok := c.Get(parsedBodyKey); ok {
		return v.(map[string]any), nil
	}

	raw, err := readBody(c)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errBodyNotObject
	}
	c.Set(parsedBodyKey, obj)
	return obj, nil
}

// bodyRejection maps body read and decode failures to a response.
func bodyRejection(err error, limit int64) *Rejection {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return payloadTooLarge(limit)
	}
	return Reject(http.StatusBadRequest, "Invalid JSON", "Request body must be a valid JSON object.")
}
