// Package client is a Go client for the marketplace HTTP API.
package client

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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/dto"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s: %s %v", e.Status, e.Code, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets callers match server errors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrValidation:
		return e.Code == response.CodeValidation
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrForbidden:
		return e.Status == http.StatusForbidden
	case domain.ErrInvalidTransition:
		return e.Code == response.CodeInvalidTransition
	case domain.ErrStorage:
		return e.Code == response.CodeStorage
	case identity.ErrInvalidCredentials:
		return e.Code == response.CodeInvalidCredential
	case identity.ErrInvalidToken:
		return e.Code == response.CodeUnauthenticated
	case identity.ErrEmailTaken:
		return e.Code == response.CodeConflict
	}
	return false
}

type Client struct {
	baseURL *url.URL
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env response.ErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error.Code != "" {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func toSession(s dto.SessionResponse) *identity.Session {
	return &identity.Session{Token: s.Token, ExpiresAt: s.ExpiresAt, Identity: toIdentity(s.Identity)}
}

func toIdentity(r dto.IdentityResponse) *identity.Identity {
	return &identity.Identity{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		IsAdmin:     r.IsAdmin,
		CreatedAt:   r.CreatedAt,
	}
}

func (c *Client) authenticate(ctx context.Context, path string, in interface{}) (*identity.Session, error) {
	var out dto.SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return toSession(out), nil
}

// SignUp registers and keeps the returned token for later calls.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/signup", dto.SignUpRequest{Email: email, Password: password, DisplayName: displayName})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/signin", dto.SignInRequest{Email: email, Password: password})
}

func (c *Client) SignInFederated(ctx context.Context, idToken string) (*identity.Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/federated", dto.FederatedSignInRequest{IDToken: idToken})
}

// SignOut revokes the current token. The local token is dropped even if the
// server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*identity.Identity, error) {
	var out dto.IdentityResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return toIdentity(out), nil
}

func (c *Client) Meta(ctx context.Context) (*dto.MetaResponse, error) {
	var out dto.MetaResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/meta", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) listings(ctx context.Context, path string) ([]*domain.Listing, error) {
	var out dto.ListingsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	ls := make([]*domain.Listing, 0, len(out.Listings))
	for _, l := range out.Listings {
		ls = append(ls, l.ToDomain())
	}
	return ls, nil
}

func (c *Client) listing(ctx context.Context, method, path string, in interface{}) (*domain.Listing, error) {
	var out dto.ListingResponse
	if err := c.doJSON(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.ToDomain(), nil
}

func (c *Client) Approved(ctx context.Context) ([]*domain.Listing, error) {
	return c.listings(ctx, "/api/v1/listings")
}

func (c *Client) Mine(ctx context.Context) ([]*domain.Listing, error) {
	return c.listings(ctx, "/api/v1/me/listings")
}

func (c *Client) Pending(ctx context.Context) ([]*domain.Listing, error) {
	return c.listings(ctx, "/api/v1/admin/listings/pending")
}

func listingPath(id string, suffix ...string) string {
	return "/api/v1/listings/" + url.PathEscape(id) + strings.Join(suffix, "")
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return c.listing(ctx, http.MethodGet, listingPath(id), nil)
}

// Create uploads the draft as multipart/form-data.
func (c *Client) Create(ctx context.Context, draft domain.Draft) (*domain.Listing, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"price":       strconv.FormatFloat(draft.Price, 'f', -1, 64),
		"category":    string(draft.Category),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	for i, img := range draft.Images {
		name := img.FileName
		if name == "" {
			name = "image-" + strconv.Itoa(i)
		}
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		hdr.Set("Content-Type", img.ContentType)
		w, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(img.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/listings", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out dto.ListingResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.ToDomain(), nil
}

func (c *Client) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Listing, error) {
	req := dto.UpdateListingRequest{Title: patch.Title, Description: patch.Description, Price: patch.Price}
	if patch.Category != nil {
		cat := string(*patch.Category)
		req.Category = &cat
	}
	return c.listing(ctx, http.MethodPatch, listingPath(id), req)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, listingPath(id), nil, nil)
}

func (c *Client) MarkSold(ctx context.Context, id string) (*domain.Listing, error) {
	return c.listing(ctx, http.MethodPost, listingPath(id, "/sold"), nil)
}

// Moderate approves or rejects a pending listing. Admin only.
func (c *Client) Moderate(ctx context.Context, id string, target domain.ListingStatus) (*domain.Listing, error) {
	var action string
	switch target {
	case domain.StatusApproved:
		action = "approve"
	case domain.StatusRejected:
		action = "reject"
	default:
		return nil, errors.New("moderation target must be approved or rejected")
	}
	return c.listing(ctx, http.MethodPost, "/api/v1/admin/listings/"+url.PathEscape(id)+"/"+action, nil)
}
