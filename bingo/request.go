// bingo/request.go
// Thin request/response layer over an injectable HTTP transport.
package bingo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Doer issues one HTTP exchange. *http.Client satisfies it; tests inject
// spies.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// response condenses an HTTP exchange. URL is the final URL after any
// redirects, which is where the room code lives after a create.
type response struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

// isError reports whether the exchange failed at the HTTP level. Redirect
// statuses count as success.
func (r response) isError() bool {
	return r.StatusCode < 200 || r.StatusCode >= 400
}

func (r response) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %s (%s)", msg, r.Status, strings.TrimSpace(string(r.Body)))
}

func (c *Client) send(ctx context.Context, method, rawURL string, contentType string, body io.Reader) (response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return response{}, fmt.Errorf("building %s %s: %w", method, rawURL, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("reading %s %s response: %w", req.Method, req.URL, err)
	}

	// The final URL, after redirects, is where a create lands on the new
	// room page.
	finalURL := req.URL.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return response{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (response, error) {
	return c.send(ctx, http.MethodGet, rawURL, "", nil)
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload interface{}) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encoding body for %s: %w", rawURL, err)
	}
	return c.send(ctx, http.MethodPost, rawURL, "application/json", bytes.NewReader(data))
}

func (c *Client) putJSON(ctx context.Context, rawURL string, payload interface{}) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("encoding body for %s: %w", rawURL, err)
	}
	return c.send(ctx, http.MethodPut, rawURL, "application/json", bytes.NewReader(data))
}

func (c *Client) postForm(ctx context.Context, rawURL, csrfToken string, form url.Values) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return response{}, fmt.Errorf("building POST %s: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrfToken)
	return c.do(req)
}

// csrfToken fetches the service root and pulls the hidden anti-forgery token
// out of the returned markup. The field being absent is ErrTokenMissing, not
// a parse crash.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.cfg.BaseURL+"/")
	if err != nil {
		return "", err
	}
	if resp.isError() {
		return "", resp.errorf("fetching csrf token")
	}

	token := findCSRFToken(resp.Body)
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

// findCSRFToken walks the document for <input name="csrfmiddlewaretoken">
// and returns its value attribute, or "" when no such field exists. html.Parse
// tolerates arbitrary input, so malformed pages simply yield "".
func findCSRFToken(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	var token string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var name, value string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				}
			}
			if name == "csrfmiddlewaretoken" {
				token = value
				return
			}
		}
		for child := n.FirstChild; child != nil && token == ""; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return token
}
