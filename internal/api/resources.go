package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// getJSON performs a GET and decodes the body into out. An empty body is an error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	data, err := c.Request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("GET %s: empty response", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListInstallations returns all installations of the account, in app order.
func (c *Client) ListInstallations(ctx context.Context) ([]InstallationRecord, error) {
	var resp struct {
		Installations []InstallationRecord `json:"installations"`
	}
	query := url.Values{"items": {"1000"}, "page": {"0"}}
	if err := c.getJSON(ctx, "/api/v1/installations", query, &resp); err != nil {
		return nil, err
	}
	return resp.Installations, nil
}

// GetInstallation returns an installation with its groups and device identities.
func (c *Client) GetInstallation(ctx context.Context, installationID string) (*InstallationDetail, error) {
	var detail InstallationDetail
	if err := c.getJSON(ctx, "/api/v1/installations/"+url.PathEscape(installationID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetDeviceStatus returns the current state snapshot of a device.
func (c *Client) GetDeviceStatus(ctx context.Context, deviceID, installationID string) (*DeviceStatus, error) {
	path := "/api/v1/devices/" + url.PathEscape(deviceID) + "/status"
	data, err := c.Request(ctx, http.MethodGet, path, url.Values{"installation_id": {installationID}}, nil)
	if err != nil {
		return nil, err
	}
	return DecodeDeviceStatus(data)
}

// GetDeviceConfig returns the device configuration. Responses are cached per device
// until the TTL expires or the device is patched.
func (c *Client) GetDeviceConfig(ctx context.Context, deviceID, installationID string) (*DeviceConfig, error) {
	key := configCacheKey(deviceID, installationID)
	if cached, ok := c.configs.Get(key); ok {
		return cached.(*DeviceConfig), nil
	}

	var cfg DeviceConfig
	path := "/api/v1/devices/" + url.PathEscape(deviceID) + "/config"
	query := url.Values{"installation_id": {installationID}, "type": {"user"}}
	if err := c.getJSON(ctx, path, query, &cfg); err != nil {
		return nil, err
	}

	c.configs.SetDefault(key, &cfg)
	return &cfg, nil
}

// PatchDevice sets one parameter of a device. Values are always sent in Celsius.
func (c *Client) PatchDevice(ctx context.Context, deviceID, installationID, param string, value interface{}) error {
	body := PatchBody{
		InstallationID: installationID,
		Param:          param,
		Value:          value,
		Opts:           PatchOpts{Units: 0},
	}
	if _, err := c.Request(ctx, http.MethodPatch, "/api/v1/devices/"+url.PathEscape(deviceID), nil, body); err != nil {
		return err
	}
	c.configs.Delete(configCacheKey(deviceID, installationID))
	return nil
}

// GetUser returns the logged in account.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/api/v1/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func configCacheKey(deviceID, installationID string) string {
	return installationID + "/" + deviceID
}
