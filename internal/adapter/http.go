package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/utils"
	"github.com/MKhiriev/vault-sync/models"
	"github.com/go-resty/resty/v2"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of [ServerAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and request
// timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed) for
// use in the Authorization header of all subsequent authenticated requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently held
// by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	return h.token
}

// Register implements [ServerAdapter]. It POSTs the credential identifier to
// POST /api/entity/register. On success the bearer token is extracted from the
// Authorization response header and stored via SetToken. Returns an error if
// the request fails, the server returns a non-2xx status, or the token cannot
// be parsed.
func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/entity/register")
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RegisterResponse{}, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("register parse bearer token: %w", err)
	}

	var out models.RegisterResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.RegisterResponse{}, fmt.Errorf("decode register response: %w", err)
	}

	h.SetToken(token)
	return out, nil
}

// CreateInvite implements [ServerAdapter]. It POSTs the invite code and sealed
// private key to POST /api/invites.
func (h *httpServerAdapter) CreateInvite(ctx context.Context, req models.CreateInviteRequest) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/invites")
	if err != nil {
		return fmt.Errorf("create invite request: %w", err)
	}

	return mapHTTPError(resp)
}

// ConsumeInvite implements [ServerAdapter]. It claims code via
// POST /api/invites/consume and returns the sealed private key.
func (h *httpServerAdapter) ConsumeInvite(ctx context.Context, code string) (models.ConsumeInviteResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ConsumeInviteRequest{Code: code}).
		Post("/api/invites/consume")
	if err != nil {
		return models.ConsumeInviteResponse{}, fmt.Errorf("consume invite request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ConsumeInviteResponse{}, err
	}

	var out models.ConsumeInviteResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.ConsumeInviteResponse{}, fmt.Errorf("decode consume invite response: %w", err)
	}
	return out, nil
}

// CreateShare implements [ServerAdapter]. It POSTs the share code and sealed
// content key to POST /api/shares.
func (h *httpServerAdapter) CreateShare(ctx context.Context, req models.CreateShareRequest) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/shares")
	if err != nil {
		return fmt.Errorf("create share request: %w", err)
	}

	return mapHTTPError(resp)
}

// ConsumeShare implements [ServerAdapter]. It claims code via
// POST /api/shares/consume and returns the sealed content key and share scope.
func (h *httpServerAdapter) ConsumeShare(ctx context.Context, code string) (models.ConsumeShareResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ConsumeShareRequest{Code: code}).
		Post("/api/shares/consume")
	if err != nil {
		return models.ConsumeShareResponse{}, fmt.Errorf("consume share request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ConsumeShareResponse{}, err
	}

	var out models.ConsumeShareResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.ConsumeShareResponse{}, fmt.Errorf("decode consume share response: %w", err)
	}
	return out, nil
}

// RevokeShare implements [ServerAdapter]. It removes a live grant via
// DELETE /api/shares and reports whether a grant was actually removed.
func (h *httpServerAdapter) RevokeShare(ctx context.Context, req models.RevokeShareRequest) (bool, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Delete("/api/shares")
	if err != nil {
		return false, fmt.Errorf("revoke share request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}

	var out models.RevokeShareResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return false, fmt.Errorf("decode revoke share response: %w", err)
	}
	return out.Removed, nil
}

// ListShares implements [ServerAdapter]. It returns the live grants involving
// the session entity via GET /api/shares.
func (h *httpServerAdapter) ListShares(ctx context.Context) (models.ShareList, error) {
	resp, err := h.authedRequest(ctx).Get("/api/shares")
	if err != nil {
		return models.ShareList{}, fmt.Errorf("list shares request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ShareList{}, err
	}

	var out models.ShareList
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.ShareList{}, fmt.Errorf("decode share list response: %w", err)
	}
	return out, nil
}

// EraseEntity implements [ServerAdapter]. It permanently deletes the session
// entity's server-side data via DELETE /api/entity.
func (h *httpServerAdapter) EraseEntity(ctx context.Context) error {
	resp, err := h.authedRequest(ctx).Delete("/api/entity")
	if err != nil {
		return fmt.Errorf("erase entity request: %w", err)
	}

	return mapHTTPError(resp)
}

// ServerVersion implements [ServerAdapter]. It fetches the server build
// version via GET /api/version.
func (h *httpServerAdapter) ServerVersion(ctx context.Context) (string, error) {
	resp, err := h.client.R().SetContext(ctx).Get("/api/version")
	if err != nil {
		return "", fmt.Errorf("server version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return strings.TrimSpace(string(resp.Body())), nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
