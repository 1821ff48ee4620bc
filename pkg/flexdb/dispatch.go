package flexdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

var jsonNull = json.RawMessage("null")

type dispatcher struct {
	baseURL   string
	auth      authenticator
	transport Transport
	logger    hclog.Logger
}

// dispatch sends one request and interprets the outcome.
// A 404 yields (nil, nil); other non-2xx statuses yield *HTTPError and a
// missing response yields *TransportError.
func (d *dispatcher) dispatch(ctx context.Context, method, path string, body any, ac AuthContext) (json.RawMessage, error) {
	url := d.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = encodeJSON(body)
		if err != nil {
			return nil, fmt.Errorf("flexdb: encode %s %s body: %w", method, path, err)
		}
	}

	header := d.auth.headers(ac)
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Accept", "application/json")
	if payload != nil {
		header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status, respBody, err := d.transport.Call(ctx, method, url, header, payload)
	if err != nil {
		d.logger.Debug("request failed", "method", method, "path", path, "auth", ac.String(), "error", err)
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	d.logger.Debug("request", "method", method, "path", path, "auth", ac.String(),
		"status", status, "duration", time.Since(start))

	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status < 200 || status > 299:
		return nil, newHTTPError(status, respBody)
	}

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 {
		return jsonNull, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("flexdb: decode %s %s response: invalid JSON body", method, path)
	}
	return json.RawMessage(trimmed), nil
}

func encodeJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
