// Package airzone models an Airzone Cloud account as a tree of installations,
// groups and devices that keeps its object identities across refreshes.
package airzone

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dorinclisu/airzone-cli/internal/api"
)

// DefaultSettleDelay is how long RefreshAfterSettle waits before fetching.
const DefaultSettleDelay = time.Second

// Options configures a Client.
type Options struct {
	Logger *slog.Logger
	// SettleDelay overrides DefaultSettleDelay. A negative value disables the wait.
	SettleDelay time.Duration
}

// Client is the root of the entity tree.
//
// A Client and its entities are not safe for concurrent use.
type Client struct {
	api         *api.Client
	logger      *slog.Logger
	settleDelay time.Duration

	installations []*Installation
}

// New creates a Client on top of an authenticated transport. The tree stays
// empty until RefreshInstallations or Refresh is called.
func New(transport *api.Client, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	delay := opts.SettleDelay
	if delay == 0 {
		delay = DefaultSettleDelay
	}
	return &Client{
		api:         transport,
		logger:      logger,
		settleDelay: delay,
	}
}

// API returns the underlying transport.
func (c *Client) API() *api.Client {
	return c.api
}

// Installations returns the installations in the order the server listed them.
func (c *Client) Installations() []*Installation {
	out := make([]*Installation, len(c.installations))
	copy(out, c.installations)
	return out
}

// AllGroups returns every group of every installation.
func (c *Client) AllGroups() []*Group {
	var groups []*Group
	for _, inst := range c.installations {
		groups = append(groups, inst.groups...)
	}
	return groups
}

// AllDevices returns every device of every installation.
func (c *Client) AllDevices() []*Device {
	var devices []*Device
	for _, inst := range c.installations {
		devices = append(devices, inst.AllDevices()...)
	}
	return devices
}

// Installation looks up an installation by id.
func (c *Client) Installation(id string) (*Installation, bool) {
	for _, inst := range c.installations {
		if inst.id == id {
			return inst, true
		}
	}
	return nil, false
}

// Group looks up a group by id across all installations.
func (c *Client) Group(id string) (*Group, bool) {
	for _, g := range c.AllGroups() {
		if g.id == id {
			return g, true
		}
	}
	return nil, false
}

// Device looks up a device by id across all installations.
func (c *Client) Device(id string) (*Device, bool) {
	for _, d := range c.AllDevices() {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

// RefreshInstallations fetches the installation list and merges it into the tree.
// Groups and devices are not fetched.
func (c *Client) RefreshInstallations(ctx context.Context) error {
	records, err := c.api.ListInstallations(ctx)
	if err != nil {
		return fmt.Errorf("refresh installations: %w", err)
	}
	c.installations = c.installationMerger().merge(c.installations, records)
	c.logger.Debug("installations refreshed", "count", len(c.installations))
	return nil
}

// Refresh rebuilds the whole tree: installations, their groups and devices, and
// every device's status.
func (c *Client) Refresh(ctx context.Context) error {
	if err := c.RefreshInstallations(ctx); err != nil {
		return err
	}
	for _, inst := range c.installations {
		if err := inst.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAfterSettle waits for the settle delay, then refreshes the whole tree.
func (c *Client) RefreshAfterSettle(ctx context.Context) error {
	if err := c.settle(ctx); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// settle blocks for the settle delay or until ctx is done.
func (c *Client) settle(ctx context.Context) error {
	if c.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) installationMerger() merger[string, api.InstallationRecord, *Installation] {
	return merger[string, api.InstallationRecord, *Installation]{
		keep:      func(r api.InstallationRecord) bool { return r.InstallationID != "" },
		recordKey: func(r api.InstallationRecord) string { return r.InstallationID },
		entityKey: func(i *Installation) string { return i.id },
		update: func(i *Installation, r api.InstallationRecord) {
			i.record = r
		},
		create: func(r api.InstallationRecord) *Installation {
			c.logger.Debug("installation discovered", "installation_id", r.InstallationID, "name", r.Name)
			return &Installation{client: c, id: r.InstallationID, record: r}
		},
	}
}
