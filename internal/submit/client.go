package submit

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

	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/version"
)

// ClientConfig configures the practice server client.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one practice server.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient validates cfg and builds a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("server url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout > 0 {
		clone := *httpClient
		clone.Timeout = cfg.Timeout
		httpClient = &clone
	}

	return &Client{
		base:  base,
		token: strings.TrimSpace(cfg.Token),
		http:  httpClient,
	}, nil
}

// LoginURL is where an expired session is sent.
func (c *Client) LoginURL() string {
	return c.endpoint(LoginPath)
}

// Submit uploads payload for req and interprets the reply. A 401 yields a
// redirect Outcome with a nil error.
func (c *Client) Submit(ctx context.Context, payload Payload, req Request) (Outcome, error) {
	if strings.TrimSpace(string(req.ItemID)) == "" {
		return Outcome{}, &Error{Kind: KindMissingContent, Message: MessageMissingContent, Err: ErrMissingContent}
	}

	body, contentType, err := encodeForm(payload, req)
	if err != nil {
		return Outcome{}, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, TranscribePath, body)
	if err != nil {
		return Outcome{}, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Outcome{}, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}
	defer resp.Body.Close()

	return c.interpret(resp)
}

func (c *Client) interpret(resp *http.Response) (Outcome, error) {
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Outcome{RedirectTo: c.LoginURL(), Message: MessageSessionExpired}, nil
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Outcome{}, &Error{Kind: KindParse, Status: resp.StatusCode, Message: MessageParseFailure, Err: err}
	}
	fields, _ := decoded.(map[string]any)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := MessageServerFailure
		if serverMsg, ok := fields["error"].(string); ok && strings.TrimSpace(serverMsg) != "" {
			message = serverMsg
		}
		return Outcome{}, &Error{Kind: KindServer, Status: resp.StatusCode, Message: message}
	}

	transcript, ok := fields["transcript"].(string)
	if !ok {
		transcript = DefaultTranscript
	}
	score := CoerceScore(fields["score"])
	return Outcome{
		Transcript: transcript,
		Score:      score,
		ScoreText:  FormatScore(score),
	}, nil
}

// FetchCatalog downloads the server's practice catalog.
func (c *Client) FetchCatalog(ctx context.Context) (catalog.Catalog, []catalog.Warning, error) {
	resp, err := c.get(ctx, CatalogPath)
	if err != nil {
		return catalog.Catalog{}, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return catalog.Catalog{}, nil, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}
	cat, warnings, err := catalog.Decode(data, catalog.FormatJSON)
	if err != nil {
		return catalog.Catalog{}, nil, &Error{Kind: KindParse, Status: resp.StatusCode, Message: MessageParseFailure, Err: err}
	}
	return cat, warnings, nil
}

// Health checks that the server answers its unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, HealthPath)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: MessageTransport, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		resp.Body.Close()
		return nil, &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: MessageSessionExpired}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: MessageServerFailure}
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.base.String(), "/") + path
}

func encodeForm(payload Payload, req Request) (*bytes.Buffer, string, error) {
	mediaType := strings.TrimSpace(payload.MediaType)
	if mediaType == "" {
		mediaType = DefaultMediaType
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldAudio, AudioFilename))
	header.Set("Content-Type", mediaType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}

	id := string(req.ItemID)
	if err := w.WriteField(FieldContentID, id); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(FieldContentType, string(req.Type)); err != nil {
		return nil, "", err
	}
	if req.Type == catalog.Sentence {
		if err := w.WriteField(FieldSentenceID, id); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
