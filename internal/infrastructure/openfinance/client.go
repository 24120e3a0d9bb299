package openfinance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL  = "https://api.pluggy.ai"
	defaultTimeout  = 180 * time.Second // Large transaction histories take a while
	defaultPageSize = 500

	// API keys are valid for two hours; refresh a bit earlier.
	apiKeyTTL = 110 * time.Minute
)

var (
	// ErrMissingCredentials is returned by NewClient when the client id or secret is empty.
	ErrMissingCredentials = errors.New("provider client id and secret are required")

	// ErrNotFound is returned when the provider answers 404 for a resource.
	ErrNotFound = errors.New("provider resource not found")
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// ClientConfig holds provider credentials and transport settings.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
	HTTPClient   *http.Client // optional, mainly for tests
}

// Client handles communication with the Open Finance API.
// It is safe for concurrent use; the API key is obtained on first use and cached.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string

	mu           sync.Mutex
	apiKey       string
	apiKeyExpiry time.Time
	now          func() time.Time
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Open Finance API client.
// Missing credentials are a configuration error and fail immediately.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		now:          time.Now,
	}, nil
}

// FetchConnection fetches a single item.
func (c *Client) FetchConnection(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil, nil, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	return &item, nil
}

// FetchAccounts fetches every account of an item.
func (c *Client) FetchAccounts(ctx context.Context, itemID string) ([]Account, error) {
	var resp PageResponse[Account]
	if err := c.do(ctx, http.MethodGet, "/accounts", url.Values{"itemId": {itemID}}, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for item %s: %w", itemID, err)
	}
	return resp.Results, nil
}

// FetchTransactions fetches every page of transactions of an account.
func (c *Client) FetchTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	txs, err := fetchAllPages[Transaction](ctx, c, "/transactions", url.Values{"accountId": {accountID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account %s: %w", accountID, err)
	}
	return txs, nil
}

// FetchInvestments fetches every page of investments of an item.
func (c *Client) FetchInvestments(ctx context.Context, itemID string) ([]Investment, error) {
	investments, err := fetchAllPages[Investment](ctx, c, "/investments", url.Values{"itemId": {itemID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch investments for item %s: %w", itemID, err)
	}
	return investments, nil
}

// FetchInvestmentTransactions fetches every page of movements of an investment.
func (c *Client) FetchInvestmentTransactions(ctx context.Context, investmentID string) ([]InvestmentTransaction, error) {
	path := "/investments/" + url.PathEscape(investmentID) + "/transactions"
	txs, err := fetchAllPages[InvestmentTransaction](ctx, c, path, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for investment %s: %w", investmentID, err)
	}
	return txs, nil
}

// FetchLoans fetches every page of loans of an item.
func (c *Client) FetchLoans(ctx context.Context, itemID string) ([]Loan, error) {
	loans, err := fetchAllPages[Loan](ctx, c, "/loans", url.Values{"itemId": {itemID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch loans for item %s: %w", itemID, err)
	}
	return loans, nil
}

// FetchCreditCardBills fetches every page of bills of a credit account.
func (c *Client) FetchCreditCardBills(ctx context.Context, accountID string) ([]Bill, error) {
	bills, err := fetchAllPages[Bill](ctx, c, "/bills", url.Values{"accountId": {accountID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bills for account %s: %w", accountID, err)
	}
	return bills, nil
}

// FetchIdentity fetches the identity of an item. Returns ErrNotFound when the
// connector does not provide identity data.
func (c *Client) FetchIdentity(ctx context.Context, itemID string) (*Identity, error) {
	var identity Identity
	if err := c.do(ctx, http.MethodGet, "/identity", url.Values{"itemId": {itemID}}, nil, &identity); err != nil {
		return nil, fmt.Errorf("failed to fetch identity for item %s: %w", itemID, err)
	}
	return &identity, nil
}

// CreateConnectToken creates a token for the account-linking widget.
func (c *Client) CreateConnectToken(ctx context.Context, req ConnectTokenRequest) (*ConnectToken, error) {
	var token ConnectToken
	if err := c.do(ctx, http.MethodPost, "/connect_token", nil, req, &token); err != nil {
		return nil, fmt.Errorf("failed to create connect token: %w", err)
	}
	return &token, nil
}

// DeleteConnection deletes an item at the provider.
func (c *Client) DeleteConnection(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(itemID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	return nil
}

func fetchAllPages[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(defaultPageSize))

		var resp PageResponse[T]
		if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)

		if page >= resp.TotalPages || len(resp.Results) == 0 {
			return all, nil
		}
	}
}

// do executes an authenticated request and decodes a JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	apiKey, err := c.getAPIKey(ctx)
	if err != nil {
		return err
	}

	statusCode, respBody, err := c.send(ctx, method, path, query, body, apiKey)
	if err != nil {
		return err
	}

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		// The cached key may have been revoked early; retry once with a fresh one.
		c.invalidateAPIKey()
		if apiKey, err = c.getAPIKey(ctx); err != nil {
			return err
		}
		if statusCode, respBody, err = c.send(ctx, method, path, query, body, apiKey); err != nil {
			return err
		}
	}

	if statusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if statusCode < 200 || statusCode >= 300 {
		return parseAPIError(statusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, apiKey string) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-KEY", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// getAPIKey returns the cached API key, authenticating when it is missing or about to expire.
func (c *Client) getAPIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey != "" && c.now().Before(c.apiKeyExpiry) {
		return c.apiKey, nil
	}

	authBody := map[string]string{"clientId": c.clientID, "clientSecret": c.clientSecret}
	statusCode, respBody, err := c.send(ctx, http.MethodPost, "/auth", nil, authBody, "")
	if err != nil {
		return "", fmt.Errorf("failed to authenticate: %w", err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return "", fmt.Errorf("failed to authenticate: %w", parseAPIError(statusCode, respBody))
	}

	var authResp struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if authResp.APIKey == "" {
		return "", errors.New("failed to authenticate: empty api key")
	}

	c.apiKey = authResp.APIKey
	c.apiKeyExpiry = c.now().Add(apiKeyTTL)
	return c.apiKey, nil
}

func (c *Client) invalidateAPIKey() {
	c.mu.Lock()
	c.apiKey = ""
	c.mu.Unlock()
}

func parseAPIError(statusCode int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}
	return &APIError{StatusCode: statusCode, Code: errResp.CodeDescription, Message: errResp.Message}
}
