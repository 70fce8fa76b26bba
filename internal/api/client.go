// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package api is a typed client for the SafeCheck REST backend. Every call
// carries the caller's bearer token; responses are accepted bare or wrapped
// as {"success": true, "data": ...}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNoToken is returned before any request is made when the caller has
	// no access token.
	ErrNoToken = errors.New("api: no access token")

	// ErrNotAdmin is returned by Login when the account is not an admin.
	ErrNotAdmin = errors.New("api: account is not an admin")
)

// Error is a non-2xx response from the backend. Message is the backend's own
// message when it sent one, otherwise a generic message for the operation.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Message returns the text to show the user for err.
func Message(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNoToken):
		return "No hay token de autenticación"
	case errors.Is(err, ErrNotAdmin):
		return "Acceso denegado. Se requieren permisos de administrador."
	default:
		return "No se pudo conectar con el servidor."
	}
}

// IsStatus reports whether err is a backend error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the SafeCheck backend under baseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client. A zero timeout falls back to 15 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one backend request.
type call struct {
	method   string
	path     string
	token    string
	query    url.Values
	body     any
	fallback string // shown when the backend sends no message
	public   bool   // no bearer token required
}

// do performs the request and, when out is non-nil, decodes the unwrapped
// response into it.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	raw, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("api %s %s: decode: %w", cl.method, cl.path, err)
	}
	return nil
}

// send performs the request and returns the raw response body of a 2xx
// response.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	if !cl.public && cl.token == "" {
		return nil, ErrNoToken
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("api %s %s: marshal: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(payload)
	}

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: request: %w", cl.method, cl.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: http: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: read body: %w", cl.method, cl.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(respBody, cl.fallback)}
	}
	return respBody, nil
}

// errorMessage extracts "message" from an error body. NestJS-style validation
// errors send a list of messages, which are joined.
func errorMessage(body []byte, fallback string) string {
	var e struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil || len(e.Message) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	}
	var list []string
	if err := json.Unmarshal(e.Message, &list); err == nil && len(list) > 0 {
		return strings.Join(list, ". ")
	}
	return fallback
}

// unwrap returns data from a {"success": true, "data": ...} envelope, or the
// body unchanged.
func unwrap(body []byte) []byte {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return body
	}
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	if env.Success && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

// decodeList decodes a list response. Besides a bare array or the success
// envelope it accepts {"data": [...]} and, failing that, the first
// array-valued property of an object (e.g. {"items": [...], "total": 3}).
// Anything else yields an empty list.
func decodeList[T any](body []byte) ([]T, error) {
	v := unwrap(body)
	if len(v) > 0 && v[0] == '{' {
		v = firstArray(v)
	}
	out := []T{}
	if len(v) == 0 || v[0] != '[' {
		return out, nil
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, fmt.Errorf("api: decode list: %w", err)
	}
	return out, nil
}

// firstArray returns the "data" property of obj when it is an array,
// otherwise the first array-valued property in document order.
func firstArray(obj []byte) []byte {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err == nil {
		if d := bytes.TrimSpace(m["data"]); len(d) > 0 && d[0] == '[' {
			return d
		}
	}

	dec := json.NewDecoder(bytes.NewReader(obj))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		if raw = bytes.TrimSpace(raw); len(raw) > 0 && raw[0] == '[' {
			return raw
		}
	}
	return nil
}

// ID is a backend identifier. The backend sends ids as numbers for some
// resources and strings for others; both decode into an ID.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("api: id must be a string or number, got %s", b)
		}
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string { return string(id) }

// path escapes the id for use as a URL path segment.
func (id ID) path() string { return url.PathEscape(string(id)) }
