package prodanswer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br, zstd"
	requestIDHeader = "X-Request-ID"
)

var retryDelay = 500 * time.Millisecond

// Upload describes a file sent as multipart form data.
type Upload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.APIURL + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}

	if len(q) > 0 {
		query := req.URL.Query()
		for key, values := range q {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		req.URL.RawQuery = query.Encode()
	}

	if err := c.setHeaders(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("reading api token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set(requestIDHeader, uuid.NewString())

	return nil
}

// linearBackoff waits retryDelay longer before every next attempt.
func linearBackoff() retry.Backoff {
	var attempt time.Duration
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return attempt * retryDelay, false
	})
}

// request sends req, retrying GET requests on transport errors and 5xx statuses.
// The last 5xx response is returned as is so send can report it.
func (c *Client) request(req *http.Request) (*http.Response, error) {
	retries := 0
	if req.Method == http.MethodGet && c.Retries > 0 {
		retries = c.Retries
	}
	backoff := retry.WithMaxRetries(uint64(retries), linearBackoff())

	attempt := 0
	return retry.DoValue[*http.Response](req.Context(), backoff, func(ctx context.Context) (*http.Response, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		c.logger.Debug("make request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.Int("attempt", attempt),
		)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			err = fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
			c.logger.Debug("request failed", zap.String("url", req.URL.String()), zap.Error(err))
			return nil, retry.RetryableError(err)
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt <= retries {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.logger.Debug("retrying request", zap.String("url", req.URL.String()), zap.String("status", resp.Status))
			return nil, retry.RetryableError(fmt.Errorf("bad status: %s", resp.Status))
		}

		return resp, nil
	})
}

// send performs the request and turns non-2xx responses into *APIError.
// On success the caller owns the returned body.
func (c *Client) send(req *http.Request) (*http.Response, io.ReadCloser, error) {
	resp, err := c.request(req)
	if err != nil {
		return nil, nil, err
	}

	body, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer body.Close()
		data, _ := io.ReadAll(body)
		apiErr := parseError(resp.StatusCode, resp.Status, data)
		apiErr.RequestID = req.Header.Get(requestIDHeader)

		c.logger.Debug("backend rejected request",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Message),
		)

		if resp.StatusCode == http.StatusUnauthorized && c.OnUnauthorized != nil {
			c.OnUnauthorized(req.Context(), apiErr)
		}

		return nil, nil, apiErr
	}

	return resp, body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, q, reader)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", contentType)
	}

	return c.sendJSON(req, out)
}

func (c *Client) sendJSON(req *http.Request, out any) error {
	_, body, err := c.send(req)
	if err != nil {
		return err
	}
	defer body.Close()

	if out == nil {
		io.Copy(io.Discard, body)
		return nil
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) putJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// postMultipart sends the form fields and an optional file as multipart/form-data.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, file *Upload, out any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for key, val := range fields {
		if val == "" {
			continue
		}
		if err := w.WriteField(key, val); err != nil {
			return err
		}
	}

	if file != nil {
		partType := file.ContentType
		if partType == "" {
			partType = "application/octet-stream"
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
		header.Set("Content-Type", partType)

		part, err := w.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("copy %s into request: %w", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.sendJSON(req, out)
}

func pathID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidArgument("id is required")
	}
	return url.PathEscape(id), nil
}

func encodeJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return nil
}
