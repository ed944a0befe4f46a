/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/acronis/phrase-migrate/log"
)

// makeRequestBodyRewindable returns a function that resets the request body before the next attempt.
// It prefers req.GetBody, then seeking, and buffers the whole body in memory only as the last option.
// Phrase payloads are small JSON documents, so buffering is acceptable there.
func makeRequestBodyRewindable(req *http.Request) (func(*http.Request) error, error) {
	if req.GetBody != nil {
		initialBody, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("get body before doing first request: %w", err)
		}
		req.Body = initialBody
		return func(r *http.Request) error {
			newBody, newBodyErr := r.GetBody()
			if newBodyErr != nil {
				return fmt.Errorf("get body for retry: %w", newBodyErr)
			}
			r.Body = newBody
			return nil
		}, nil
	}

	if seeker, ok := req.Body.(io.ReadSeeker); ok {
		offset, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("seek request body before doing first request: %w", err)
		}
		req.Body = io.NopCloser(req.Body)
		return func(*http.Request) error {
			if _, seekErr := seeker.Seek(offset, io.SeekStart); seekErr != nil {
				return fmt.Errorf("seek request body (offset=%d) for retry: %w", offset, seekErr)
			}
			return nil
		}, nil
	}

	buffered, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read all request body before doing first request: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(buffered))
	return func(r *http.Request) error {
		r.Body = io.NopCloser(bytes.NewReader(buffered))
		return nil
	}, nil
}

// drainResponseBody reads and discards the entire response body to allow connection reuse.
func drainResponseBody(resp *http.Response, logger log.FieldLogger) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close previous response body between retry attempts", log.Error(closeErr))
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.Error("failed to discard previous response body between retry attempts", log.Error(err))
	}
}
