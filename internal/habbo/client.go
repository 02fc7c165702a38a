package habbo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"habboverify/internal/logger"
	"habboverify/internal/models"
)

type ErrorKind int

const (
	// KindTransport: no usable response was obtained. Nothing is known about the account.
	KindTransport ErrorKind = iota + 1
	// KindNotFound: the API answered with an error field (unknown name or private profile).
	KindNotFound
)

type FetchError struct {
	Kind    ErrorKind
	Name    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("habbo %q unavailable: %s", e.Name, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("habbo %q request failed: %v", e.Name, e.Err)
		}
		return fmt.Sprintf("habbo %q request failed: %s", e.Name, e.Message)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries an upstream "error" answer; the upstream text is returned too.
func IsNotFound(err error) (string, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindNotFound {
		return fe.Message, true
	}
	return "", false
}

type Client struct {
	lookupURL string
	userAgent string
	client    *http.Client
}

func NewClient(lookupURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		lookupURL: lookupURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch looks a profile up by name. Fields missing from the answer keep their zero value.
func (c *Client) Fetch(ctx context.Context, name string) (*models.Profile, error) {
	full := c.lookupURL + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Name: name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Log.WithField("habbo", name).Errorf("[habbo][fetch][err] http: %v", err)
		return nil, &FetchError{Kind: KindTransport, Name: name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Name: name, Err: err}
	}
	logger.Log.WithField("habbo", name).Debugf("[habbo][fetch] http_status=%d bytes=%d", resp.StatusCode, len(body))

	var envelope struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{Kind: KindTransport, Name: name, Err: fmt.Errorf("decode: %w", err)}
	}
	if envelope.Error != nil {
		return nil, &FetchError{Kind: KindNotFound, Name: name, Message: *envelope.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: KindTransport, Name: name, Message: fmt.Sprintf("status=%d", resp.StatusCode)}
	}

	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &FetchError{Kind: KindTransport, Name: name, Err: fmt.Errorf("decode: %w", err)}
	}
	return &p, nil
}
