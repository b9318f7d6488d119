package router

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"hotspot-pix-portal/internal/domain/ports/adapter"
)

var _ adapter.RouterProvisioner = (*MikrotikProvisioner)(nil)

// MikrotikProvisioner manages hotspot users over the RouterOS v7 REST API.
// A granted session becomes a hotspot user whose credentials equal the
// session id and whose limit-uptime equals the purchased duration; the
// router tears the user down on its own once the uptime is spent.
type MikrotikProvisioner struct {
	baseURL  string
	username string
	password string
	profile  string
	client   *http.Client
}

func NewMikrotikProvisioner(address, username, password, profile string) (*MikrotikProvisioner, error) {
	if address == "" || username == "" {
		return nil, errors.New("mikrotik address and username required")
	}
	if profile == "" {
		profile = "default"
	}
	return &MikrotikProvisioner{
		baseURL:  "https://" + address + "/rest",
		username: username,
		password: password,
		profile:  profile,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				// RouterOS ships a self-signed certificate.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}, nil
}

func (m *MikrotikProvisioner) Name() string { return "mikrotik" }

type hotspotUser struct {
	RouterID    string `json:".id,omitempty"`
	Name        string `json:"name"`
	Password    string `json:"password,omitempty"`
	Profile     string `json:"profile,omitempty"`
	LimitUptime string `json:"limit-uptime,omitempty"`
}

func (m *MikrotikProvisioner) Grant(ctx context.Context, identifier string, duration time.Duration) error {
	// Idempotent: an existing user for this identifier means the grant
	// already happened.
	existing, err := m.findUser(ctx, identifier)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	body, err := json.Marshal(hotspotUser{
		Name:        identifier,
		Password:    identifier,
		Profile:     m.profile,
		LimitUptime: formatUptime(duration),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.baseURL+"/ip/hotspot/user", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(m.username, m.password)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mikrotik add user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("mikrotik add user: status %d", resp.StatusCode)
	}
	return nil
}

func (m *MikrotikProvisioner) Revoke(ctx context.Context, identifier string) error {
	u, err := m.findUser(ctx, identifier)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.baseURL+"/ip/hotspot/user/"+url.PathEscape(u.RouterID), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.username, m.password)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mikrotik remove user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("mikrotik remove user: status %d", resp.StatusCode)
	}
	return nil
}

func (m *MikrotikProvisioner) findUser(ctx context.Context, name string) (*hotspotUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/ip/hotspot/user?name="+url.QueryEscape(name), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(m.username, m.password)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mikrotik find user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mikrotik find user: status %d", resp.StatusCode)
	}
	var users []hotspotUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("mikrotik decode users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// Ping verifies credentials against the router, used by the admin
// "test connection" action.
func (m *MikrotikProvisioner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/system/identity", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.username, m.password)
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mikrotik ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mikrotik ping: status %d", resp.StatusCode)
	}
	return nil
}

// formatUptime renders a duration the way RouterOS expects, e.g. "2h30m".
func formatUptime(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes <= 0 {
		minutes = 1
	}
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
