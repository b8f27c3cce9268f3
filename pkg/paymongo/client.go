package paymongo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tindahanph/storefront-backend/pkg/config"
	pkgerrors "github.com/tindahanph/storefront-backend/pkg/errors"
	"github.com/tindahanph/storefront-backend/pkg/logger"
)

var (
	errSecretKeyRequired = errors.New("paymongo secret key is required")
	errLoggerRequired    = errors.New("paymongo logger is required")
)

// Client exposes PayMongo source creation with centralized auth, logging, and
// error mapping. Every failure maps to a dependency error; the orchestrator
// never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	currency   string
	logger     *logger.Logger
}

// NewClient initializes the PayMongo wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PayMongoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errSecretKeyRequired
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("paymongo base url is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "PHP"
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(secret+":")),
		currency:   currency,
		logger:     logg,
	}

	logg.Info(ctx, "paymongo client initialized")
	return c, nil
}

// BillingAddress is the address block sent alongside a payment source.
type BillingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Billing identifies the paying customer on the gateway side.
type Billing struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address BillingAddress `json:"address"`
}

// CreateSourceParams carries everything needed to open an e-wallet payment
// source. AmountCents is the order total in minor currency units. Redirect
// URLs must be absolute.
type CreateSourceParams struct {
	AmountCents     int64
	Billing         Billing
	SuccessRedirect string
	FailedRedirect  string
}

// Source is the gateway's handle for an in-flight payment.
type Source struct {
	ID          string
	Status      string
	CheckoutURL string
}

type sourceRequest struct {
	Data struct {
		Attributes struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Type     string `json:"type"`
			Redirect struct {
				Success string `json:"success"`
				Failed  string `json:"failed"`
			} `json:"redirect"`
			Billing Billing `json:"billing"`
		} `json:"attributes"`
	} `json:"data"`
}

type sourceResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status   string `json:"status"`
			Redirect struct {
				CheckoutURL string `json:"checkout_url"`
			} `json:"redirect"`
		} `json:"attributes"`
	} `json:"data"`
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CreateSource opens a gcash payment source for the given amount.
func (c *Client) CreateSource(ctx context.Context, params CreateSourceParams) (*Source, error) {
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload := sourceRequest{}
	payload.Data.Attributes.Amount = params.AmountCents
	payload.Data.Attributes.Currency = c.currency
	payload.Data.Attributes.Type = "gcash"
	payload.Data.Attributes.Redirect.Success = params.SuccessRedirect
	payload.Data.Attributes.Redirect.Failed = params.FailedRedirect
	payload.Data.Attributes.Billing = params.Billing

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode source request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sources", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build source request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	c.log(ctx, "request", "create_source", map[string]any{"amount_cents": params.AmountCents})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_source", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment source")
	}
	defer resp.Body.Close()

	var parsed sourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log(ctx, "error", "create_source", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment source response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || len(parsed.Errors) > 0 {
		detail := fmt.Sprintf("gateway status %d", resp.StatusCode)
		if len(parsed.Errors) > 0 {
			detail = parsed.Errors[0].Detail
		}
		c.log(ctx, "error", "create_source", map[string]any{"status": resp.StatusCode, "detail": detail})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment source rejected").WithDetails(map[string]any{"detail": detail})
	}

	source := &Source{
		ID:          parsed.Data.ID,
		Status:      parsed.Data.Attributes.Status,
		CheckoutURL: parsed.Data.Attributes.Redirect.CheckoutURL,
	}
	if source.ID == "" || source.CheckoutURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment source response incomplete")
	}

	c.log(ctx, "response", "create_source", map[string]any{"source_id": source.ID, "status": source.Status})
	return source, nil
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"gateway": "paymongo", "operation": operation, "phase": phase}
	for k, v := range fields {
		merged[k] = v
	}
	ctx = c.logger.WithFields(ctx, merged)
	c.logger.Info(ctx, "paymongo."+operation)
}
