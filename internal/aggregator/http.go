package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"routecrm-go/internal/config"
)

// HTTPClient implements Client against a Plaid-style JSON API.
type HTTPClient struct {
	cfg  *config.Config
	http *http.Client
}

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{cfg: cfg, http: &http.Client{}}
}

type apiError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type syncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
	Count       int    `json:"count"`
}

type wireTransaction struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Name          string          `json:"name"`
	MerchantName  string          `json:"merchant_name"`
	Pending       bool            `json:"pending"`
}

type syncResponse struct {
	Added      []wireTransaction `json:"added"`
	Modified   []wireTransaction `json:"modified"`
	Removed    []struct {
		TransactionID string `json:"transaction_id"`
	} `json:"removed"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func (c *HTTPClient) FetchDeltaPage(ctx context.Context, accessToken, cursor string) (*DeltaPage, error) {
	body := syncRequest{
		ClientID:    c.cfg.AggregatorClientID,
		Secret:      c.cfg.AggregatorSecret,
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       100,
	}

	var out syncResponse
	if err := c.post(ctx, "/transactions/sync", body, &out); err != nil {
		return nil, err
	}

	page := &DeltaPage{
		NextCursor: out.NextCursor,
		HasMore:    out.HasMore,
	}
	for _, w := range out.Added {
		t, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		page.Added = append(page.Added, t)
	}
	for _, w := range out.Modified {
		t, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		page.Modified = append(page.Modified, t)
	}
	for _, r := range out.Removed {
		page.RemovedIDs = append(page.RemovedIDs, r.TransactionID)
	}
	return page, nil
}

func (c *HTTPClient) FetchBalances(ctx context.Context, accessToken string) (map[string]decimal.Decimal, error) {
	body := struct {
		ClientID    string `json:"client_id"`
		Secret      string `json:"secret"`
		AccessToken string `json:"access_token"`
	}{c.cfg.AggregatorClientID, c.cfg.AggregatorSecret, accessToken}

	var out struct {
		Accounts []struct {
			AccountID string `json:"account_id"`
			Balances  struct {
				Current *decimal.Decimal `json:"current"`
			} `json:"balances"`
		} `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/balance/get", body, &out); err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(out.Accounts))
	for _, a := range out.Accounts {
		if a.Balances.Current != nil {
			balances[a.AccountID] = *a.Balances.Current
		}
	}
	return balances, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.AggregatorBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aggregator %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("aggregator %s: read body: %w", path, err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.ErrorCode != "" {
			return &ProviderError{Code: apiErr.ErrorCode, Message: apiErr.ErrorMessage}
		}
		return fmt.Errorf("aggregator %s: status %d: %s", path, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("aggregator %s: decode: %w", path, err)
	}
	return nil
}

func fromWire(w wireTransaction) (RemoteTransaction, error) {
	date, err := time.Parse("2006-01-02", w.Date)
	if err != nil {
		return RemoteTransaction{}, fmt.Errorf("bad transaction date %q: %w", w.Date, err)
	}
	return RemoteTransaction{
		ExternalID:        w.TransactionID,
		ExternalAccountID: w.AccountID,
		Date:              date,
		Amount:            w.Amount,
		Description:       w.Name,
		MerchantName:      w.MerchantName,
		Pending:           w.Pending,
	}, nil
}
