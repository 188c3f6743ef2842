package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response from the Earth Engine REST API. Error
// returns the server's message unchanged.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("earth engine: %d %s", e.StatusCode, e.Status)
}

// errorEnvelope is the google.rpc.Status wrapper used by Google APIs.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// postJSON sends body as JSON and decodes a successful response into out.
// Requests are issued once; there is no retry.
func postJSON(ctx context.Context, client *http.Client, url, userAgent, userProject string, body, out any) error {
	if client == nil {
		return errors.New("http client is required")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if userProject != "" {
		req.Header.Set("X-Goog-User-Project", userProject)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}
	return decodeJSON(resp.Body, out)
}

func httpError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}

	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		return apiErr
	}
	if len(data) > 0 {
		apiErr.Message = fmt.Sprintf("http error: %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return apiErr
}

func decodeJSON(r io.Reader, v any) error {
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
