package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/juliovp13-web/SafeZone/internal/rates"
)

// APIClient issues authenticated calls against the SafeZone API. It owns
// bearer-token attachment; everything else about a request is plain JSON
// over HTTP. The token is guarded by a mutex: logout rewrites it while
// poller goroutines may be mid-request.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient builds a client for the given base URL, e.g.
// "http://localhost:8080".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent calls. An empty
// string clears it.
func (c *APIClient) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ----- error taxonomy -----

// AuthError is a 401 from the API: bad credentials or a stale token.
type AuthError struct{ Message string }

func (e *AuthError) Error() string { return e.Message }

// ValidationError is a 400 from the API: missing or malformed fields.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// APIError covers every other non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// ----- wire shapes -----

type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	State         string   `json:"state"`
	City          string   `json:"city"`
	Neighborhood  string   `json:"neighborhood"`
	Street        string   `json:"street"`
	Number        string   `json:"number"`
	CountryCode   string   `json:"country_code"`
	ResidentNames []string `json:"resident_names"`
	IsAdmin       bool     `json:"is_admin"`
	IsVIP         bool     `json:"is_vip"`
}

// DisplayName is the first resident name, falling back to the account
// name. Alerts are announced under this name.
func (u User) DisplayName() string {
	for _, n := range u.ResidentNames {
		if n != "" {
			return n
		}
	}
	return u.Name
}

type AuthResult struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type SubscriptionStatus struct {
	HasSubscription bool   `json:"has_subscription"`
	Status          string `json:"status"`
	DaysRemaining   *int   `json:"days_remaining"`
	IsBlocked       bool   `json:"is_blocked"`
	Message         string `json:"message"`
	NeedsPayment    bool   `json:"needs_payment"`
	SubscriptionID  string `json:"subscription_id"`
}

type Alert struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	UserName     string `json:"user_name"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Timestamp    string `json:"timestamp"`
	IsActive     bool   `json:"is_active"`
}

type Notification struct {
	ID               string `json:"id"`
	AlertID          string `json:"alert_id"`
	AlertType        string `json:"alert_type"`
	RequesterName    string `json:"requester_name"`
	RequesterAddress string `json:"requester_address"`
	CreatedAt        string `json:"created_at"`
}

type AlertAck struct {
	Message            string `json:"message"`
	AlertID            string `json:"alert_id"`
	NotificationSentTo int    `json:"notification_sent_to"`
	SilentForRequester bool   `json:"silent_for_requester"`
	TargetAddress      string `json:"target_address"`
}

type RegisterRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	State         string   `json:"state,omitempty"`
	City          string   `json:"city,omitempty"`
	Neighborhood  string   `json:"neighborhood"`
	Street        string   `json:"street"`
	Number        string   `json:"number"`
	CountryCode   string   `json:"country_code,omitempty"`
	ResidentNames []string `json:"resident_names"`
}

type HelpMessage struct {
	ID            string `json:"id"`
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	UserAddress   string `json:"user_address"`
	Message       string `json:"message"`
	Status        string `json:"status"`
	AdminResponse string `json:"admin_response"`
	CreatedAt     string `json:"created_at"`
}

type RatesResult struct {
	Rates           rates.Table `json:"rates"`
	Source          string      `json:"source"`
	MonthlyPriceBRL float64     `json:"monthly_price_brl"`
}

// ----- endpoint methods -----

func (c *APIClient) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *APIClient) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/register", req, &out)
	return out, err
}

func (c *APIClient) Profile(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

func (c *APIClient) SubscriptionStatus(ctx context.Context) (SubscriptionStatus, error) {
	var out SubscriptionStatus
	err := c.do(ctx, http.MethodGet, "/api/subscription-status", nil, &out)
	return out, err
}

func (c *APIClient) CreateSubscription(ctx context.Context, paymentMethod string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, "/api/create-subscription", map[string]string{
		"paymentMethod": paymentMethod,
	}, &out)
	return out, err
}

func (c *APIClient) ConfirmPayment(ctx context.Context, subscriptionID, paymentMethod, transactionID string) error {
	return c.do(ctx, http.MethodPost, "/api/confirm-payment", map[string]string{
		"subscription_id": subscriptionID,
		"payment_method":  paymentMethod,
		"transaction_id":  transactionID,
	}, nil)
}

func (c *APIClient) CancelSubscription(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/cancel-subscription", nil, nil)
}

func (c *APIClient) Alerts(ctx context.Context) ([]Alert, error) {
	var out []Alert
	err := c.do(ctx, http.MethodGet, "/api/alerts", nil, &out)
	return out, err
}

func (c *APIClient) SendAlert(ctx context.Context, alertType string) (AlertAck, error) {
	var out AlertAck
	err := c.do(ctx, http.MethodPost, "/api/alerts", map[string]string{
		"type": alertType,
	}, &out)
	return out, err
}

func (c *APIClient) StopAlert(ctx context.Context, alertID string) error {
	return c.do(ctx, http.MethodPut, "/api/alerts/"+alertID+"/stop", nil, nil)
}

func (c *APIClient) EmergencyNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := c.do(ctx, http.MethodGet, "/api/emergency-notifications", nil, &out)
	return out, err
}

func (c *APIClient) SendHelp(ctx context.Context, message string) error {
	return c.do(ctx, http.MethodPost, "/api/help", map[string]string{
		"message": message,
	}, nil)
}

func (c *APIClient) Rates(ctx context.Context) (RatesResult, error) {
	var out RatesResult
	err := c.do(ctx, http.MethodGet, "/api/rates", nil, &out)
	return out, err
}

func (c *APIClient) AdminStats(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &out)
	return out, err
}

func (c *APIClient) AdminUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &out)
	return out, err
}

func (c *APIClient) AdminHelpMessages(ctx context.Context) ([]HelpMessage, error) {
	var out []HelpMessage
	err := c.do(ctx, http.MethodGet, "/api/admin/help-messages", nil, &out)
	return out, err
}

func (c *APIClient) SetAdmin(ctx context.Context, email string, isAdmin, isVIP, vipPermanent bool) error {
	return c.do(ctx, http.MethodPost, "/api/admin/set-admin", map[string]any{
		"email":         email,
		"is_admin":      isAdmin,
		"is_vip":        isVIP,
		"vip_permanent": vipPermanent,
	}, nil)
}

// do sends one request and decodes the response into out (when out is
// non-nil). Non-2xx statuses are mapped onto the error taxonomy.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := decodeErrorMessage(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return &AuthError{Message: msg}
		case http.StatusBadRequest:
			return &ValidationError{Message: msg}
		default:
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeErrorMessage(r io.Reader) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return "request failed"
}
