// Package jsonp fetches JSONP endpoints: the request names a callback and
// the server answers with a script calling it, name({...}).
package jsonp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
)

// CallbackParam is the query parameter carrying the callback name.
const CallbackParam = "callback"

// maxBody bounds the size of a response.
const maxBody = 4 << 20

// Client performs JSONP requests.
type Client struct {
	// HTTP is the underlying client. Defaults to http.DefaultClient.
	HTTP *http.Client
}

// CallbackName returns a fresh callback name.
func CallbackName() string {
	return "spa_" + strings.ToLower(ulid.Make().String())
}

// URL builds the request URL: rawURL with callback first, then params in
// key order.
func URL(rawURL, callback string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	if u.RawQuery != "" {
		sb.WriteString(u.RawQuery)
		sb.WriteByte('&')
	}
	sb.WriteString(CallbackParam + "=" + url.QueryEscape(callback))
	for _, k := range keys {
		sb.WriteString("&" + url.QueryEscape(k) + "=" + url.QueryEscape(params[k]))
	}
	u.RawQuery = sb.String()
	return u.String(), nil
}

// Unwrap extracts the JSON argument of a callback(...) body.
func Unwrap(body []byte, callback string) ([]byte, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte(";"))
	body = bytes.TrimSpace(body)
	prefix := []byte(callback + "(")
	if !bytes.HasPrefix(body, prefix) || !bytes.HasSuffix(body, []byte(")")) {
		return nil, fmt.Errorf("response does not call %s", callback)
	}
	return body[len(prefix) : len(body)-1], nil
}

// Fetch requests rawURL with params and decodes the callback argument into
// out.
func (c *Client) Fetch(ctx context.Context, rawURL string, params map[string]string, out any) error {
	callback := CallbackName()
	target, err := URL(rawURL, callback, params)
	if err != nil {
		return fmt.Errorf("jsonp.Fetch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("jsonp.Fetch: %w", err)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("jsonp.Fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("jsonp.Fetch: %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("jsonp.Fetch: %w", err)
	}
	payload, err := Unwrap(body, callback)
	if err != nil {
		return fmt.Errorf("jsonp.Fetch: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("jsonp.Fetch: decode: %w", err)
	}
	return nil
}
