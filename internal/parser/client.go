// Package parser talks to the external EPUB parser service.
//
// The service accepts one multipart upload and answers with the book's
// metadata, section outline, text chunks, layout blocks and embedded images.
// Every failure (network, non-2xx, malformed body) is reported as an *Error
// matching ErrParser so callers have a single category to handle.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout = 2 * time.Minute

	// Responses carry base64 images; anything past this is not an EPUB we want.
	maxResponseSize = 512 << 20

	defaultErrorMessage = "Parser error"
)

// Client calls the parser service.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the parse endpoint. A non-positive timeout
// falls back to two minutes.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Parse uploads the EPUB as the "file" form field and returns the validated result.
func (c *Client) Parse(ctx context.Context, fileName string, file io.Reader) (*Result, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", fileName)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, unavailable(err, "Parser request could not be built: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		if isTimeout(err) {
			return nil, unavailable(err, "Parser timed out after %s", c.timeout)
		}
		return nil, unavailable(err, "Parser unreachable: %v", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseSize)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejected(resp.StatusCode, errorMessage(body))
	}

	var decoded response
	if err := json.NewDecoder(body).Decode(&decoded); err != nil {
		if isTimeout(err) {
			return nil, unavailable(err, "Parser timed out after %s", c.timeout)
		}
		return nil, invalid(err, "Parser returned an invalid response: %v", err)
	}

	return toResult(&decoded)
}

// errorMessage extracts {"error": "..."} from a failed response.
func errorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil || payload.Error == "" {
		return defaultErrorMessage
	}
	return payload.Error
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
