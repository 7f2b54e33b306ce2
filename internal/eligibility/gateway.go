package eligibility

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cibilbank/backend/internal/apperr"
)

// Credentials and endpoint are injected, never embedded in
// request-building code.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Gateway is the stateless adapter to the external loan-eligibility
// service. It holds only a short-lived token and a per-process cache of
// static document requirements.
type Gateway struct {
	cfg        Config
	httpClient *http.Client

	tokenMu sync.Mutex
	token   string

	reqDocsMu sync.RWMutex
	reqDocs   map[string][]DocumentRequirement
}

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		reqDocs:    map[string][]DocumentRequirement{},
	}
}

type authResponse struct {
	Token string `json:"token"`
}

type upstreamError struct {
	Message string `json:"message"`
}

// Authenticate obtains a fresh short-lived token using the fixed
// service credentials.
func (g *Gateway) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/authentication", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	req.Header.Set("client-id", g.cfg.ClientID)
	req.Header.Set("client-secret", g.cfg.ClientSecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: authentication status %d", apperr.ErrGatewayUnavailable, resp.StatusCode)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return fmt.Errorf("%w: empty token", apperr.ErrGatewayUnavailable)
	}

	g.tokenMu.Lock()
	g.token = body.Token
	g.tokenMu.Unlock()
	return nil
}

// CheckEligibility sends the applicant profile upstream and returns the
// normalized offers. An empty list means no offers, not an error.
func (g *Gateway) CheckEligibility(ctx context.Context, applicant ApplicantProfile) ([]Offer, error) {
	payload, err := json.Marshal(applicant)
	if err != nil {
		return nil, err
	}

	var out struct {
		Success bool    `json:"success"`
		Data    []Offer `json:"data"`
	}
	if err := g.doJSON(ctx, http.MethodPost, "/loan/checkEligibility", payload, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []Offer{}, nil
	}
	return out.Data, nil
}

func (g *Gateway) LoanTypes(ctx context.Context) ([]LoanType, error) {
	var out struct {
		Success bool       `json:"success"`
		Data    []LoanType `json:"data"`
	}
	if err := g.doJSON(ctx, http.MethodGet, "/loan/getLoanTypes", nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []LoanType{}, nil
	}
	return out.Data, nil
}

// RequiredDocuments fetches the document requirements for a loan type.
// Requirements are static per loan type, so results are cached for the
// process lifetime.
func (g *Gateway) RequiredDocuments(ctx context.Context, loanTypeID string) ([]DocumentRequirement, error) {
	loanTypeID = strings.TrimSpace(loanTypeID)
	if loanTypeID == "" {
		return nil, &apperr.InvalidApplicantError{Message: "missing loan_type_id"}
	}

	g.reqDocsMu.RLock()
	cached, ok := g.reqDocs[loanTypeID]
	g.reqDocsMu.RUnlock()
	if ok {
		return cached, nil
	}

	var out struct {
		Success bool                  `json:"success"`
		Data    []DocumentRequirement `json:"data"`
	}
	path := "/loan/getRequiredDocs?loan_type_id=" + loanTypeID
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []DocumentRequirement{}
	}

	g.reqDocsMu.Lock()
	g.reqDocs[loanTypeID] = out.Data
	g.reqDocsMu.Unlock()
	return out.Data, nil
}

// RequiredDocumentTypes adapts RequiredDocuments for the document
// service's checklist.
func (g *Gateway) RequiredDocumentTypes(ctx context.Context, loanTypeID string) ([]string, error) {
	reqs, err := g.RequiredDocuments(ctx, loanTypeID)
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.Mandatory {
			types = append(types, r.DocType)
		}
	}
	return types, nil
}

// doJSON performs an authorized call. On an upstream 401 it
// re-authenticates and retries the original request exactly once before
// escalating as gateway unavailability.
func (g *Gateway) doJSON(ctx context.Context, method, path string, payload []byte, out any) error {
	if g.currentToken() == "" {
		if err := g.Authenticate(ctx); err != nil {
			return err
		}
	}

	status, body, err := g.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := g.Authenticate(ctx); err != nil {
			return err
		}
		status, body, err = g.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return fmt.Errorf("%w: still unauthorized after refresh", apperr.ErrGatewayUnavailable)
		}
	}

	switch {
	case status >= 200 && status < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
		}
		return nil
	case status >= 400 && status < 500:
		var upstream upstreamError
		_ = json.Unmarshal(body, &upstream)
		return &apperr.InvalidApplicantError{Message: upstream.Message}
	default:
		return fmt.Errorf("%w: upstream status %d", apperr.ErrGatewayUnavailable, status)
	}
}

func (g *Gateway) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("token", g.currentToken())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err)
	}
	return resp.StatusCode, body, nil
}

func (g *Gateway) currentToken() string {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()
	return g.token
}
