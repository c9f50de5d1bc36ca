// Package flex retrieves and parses Flex Query statements from the
// brokerage's Flex Web Service. Retrieval is a two-step exchange: a send
// request trades the token and query id for a reference code, then the
// statement endpoint is polled until report generation finishes.
package flex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tradekit/flexmetrics/internal/core"
)

const defaultBaseURL = "https://ndcdyn.interactivebrokers.com/AccountManagement/FlexWebService"

// statement-not-ready error codes from the Flex Web Service; these retry,
// everything else fails the fetch.
var retryableCodes = map[string]bool{
	"1019": true, // statement generation in progress
	"1021": true, // statement generation in queue
}

// Client talks to the Flex Web Service. The token is passed through
// unchanged as a bearer credential.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	queryID      string
	pollInterval time.Duration
	maxAttempts  int
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPollInterval overrides the initial statement poll delay.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxAttempts overrides the statement poll budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// NewClient creates a Flex Web Service client for one saved query.
func NewClient(token, queryID string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultBaseURL,
		token:        token,
		queryID:      queryID,
		pollInterval: 2 * time.Second,
		maxAttempts:  6,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sendResponse is the reply to both SendRequest and a not-yet-ready
// statement poll.
type sendResponse struct {
	XMLName       xml.Name `xml:"FlexStatementResponse"`
	Status        string   `xml:"Status"`
	ReferenceCode string   `xml:"ReferenceCode"`
	URL           string   `xml:"Url"`
	ErrorCode     string   `xml:"ErrorCode"`
	ErrorMessage  string   `xml:"ErrorMessage"`
}

// Fetch downloads and parses the statement for the client's query. It
// requests report generation, then polls the statement endpoint with
// doubling delays until the report is ready or attempts run out.
func (c *Client) Fetch(ctx context.Context) (*Statement, error) {
	refCode, statementURL, err := c.sendRequest(ctx)
	if err != nil {
		return nil, err
	}

	delay := c.pollInterval
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		stmt, err := c.getStatement(ctx, statementURL, refCode)
		if err == nil {
			return stmt, nil
		}
		if !isNotReady(err) {
			return nil, err
		}
		delay *= 2
	}

	return nil, core.WrapError(core.ErrFlexNotReady,
		fmt.Errorf("statement %s not ready after %d attempts", refCode, c.maxAttempts))
}

func (c *Client) sendRequest(ctx context.Context) (refCode, statementURL string, err error) {
	u := fmt.Sprintf("%s/SendRequest?t=%s&q=%s&v=3",
		c.baseURL, url.QueryEscape(c.token), url.QueryEscape(c.queryID))

	body, err := c.get(ctx, u)
	if err != nil {
		return "", "", err
	}

	var resp sendResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", "", core.WrapError(core.ErrFlexUpstream,
			fmt.Errorf("decoding send response: %w", err))
	}

	if resp.ErrorCode != "" {
		return "", "", core.WrapError(core.ErrFlexUpstream,
			fmt.Errorf("send request rejected: %s %s", resp.ErrorCode, resp.ErrorMessage))
	}
	if resp.ReferenceCode == "" || resp.URL == "" {
		return "", "", core.WrapError(core.ErrFlexUpstream,
			fmt.Errorf("send response missing reference code or url"))
	}

	return resp.ReferenceCode, resp.URL, nil
}

func (c *Client) getStatement(ctx context.Context, statementURL, refCode string) (*Statement, error) {
	u := fmt.Sprintf("%s?t=%s&q=%s&v=3",
		statementURL, url.QueryEscape(c.token), url.QueryEscape(refCode))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	// A pending statement answers with a FlexStatementResponse error
	// envelope instead of the statement payload.
	var pending sendResponse
	if xml.Unmarshal(body, &pending) == nil && pending.ErrorCode != "" {
		base := core.ErrFlexUpstream
		if retryableCodes[pending.ErrorCode] {
			base = core.ErrFlexNotReady
		}
		return nil, core.WrapError(base,
			fmt.Errorf("%s %s", pending.ErrorCode, pending.ErrorMessage))
	}

	return ParseStatement(body)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrFlexUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrFlexUpstream,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}

func isNotReady(err error) bool {
	return errors.Is(err, core.ErrFlexNotReady)
}
