/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/acronis/phrase-migrate/log"
)

// ContentTypeAppJSON is the Content-Type of Phrase requests and responses.
const ContentTypeAppJSON = "application/json"

const maxErrorBodySize = 255

// DoRequest sends the request and logs the exchange at "debug" level.
func DoRequest(client *http.Client, req *http.Request, logger log.FieldLogger) (*http.Response, error) {
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("sent request", log.String("method", req.Method), log.String("uri", req.URL.String()))
	})
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("got response",
			log.String("method", req.Method), log.String("uri", req.URL.String()), log.Int("status", resp.StatusCode))
	})
	return resp, nil
}

// DoRequestAndUnmarshalJSON sends the request and decodes a 2xx JSON body into result (if not nil).
// Any other status is returned as *ClientError wrapping *APIError when the body carries one.
func DoRequestAndUnmarshalJSON(client *http.Client, req *http.Request, result interface{}, logger log.FieldLogger) error {
	resp, err := DoRequest(client, req, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", log.String("uri", req.URL.String()), log.Error(closeErr))
		}
	}()

	e := &ClientError{Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return e.wrap("reading response body", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if !strings.Contains(resp.Header.Get("Content-Type"), ContentTypeAppJSON) {
			if len(buf) > maxErrorBodySize {
				buf = buf[:maxErrorBodySize]
			}
			return e.wrap(http.StatusText(resp.StatusCode), fmt.Errorf("unexpected response %q", buf))
		}
		apiErr := &APIError{}
		if err = json.Unmarshal(buf, apiErr); err != nil {
			return e.wrap("unmarshaling error response", err)
		}
		return e.wrap("error response", apiErr)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		e.Message = "unexpected status code"
		return e
	}
	if result == nil {
		return nil
	}
	if len(buf) == 0 {
		e.Message = "empty response"
		return e
	}
	if err = json.Unmarshal(buf, result); err != nil {
		return e.wrap("unmarshaling response", err)
	}
	return nil
}

// NewJSONRequest creates a request with the JSON-encoded data as the body.
func NewJSONRequest(ctx context.Context, method, url string, data interface{}) (*http.Request, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, fmt.Errorf("method %s is not allowed for json request", method)
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ContentTypeAppJSON)
	req.Header.Set("Accept", ContentTypeAppJSON)
	return req, nil
}
