package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dorinclisu/airzone-cli/internal/airzone"
	"github.com/dorinclisu/airzone-cli/internal/api"
	"github.com/dorinclisu/airzone-cli/internal/testutil"
)

const (
	testEmail    = "user@example.com"
	testPassword = "secret"
)

func newTestTree(t *testing.T) *airzone.Client {
	t.Helper()
	tree, _ := newTestAccount(t)
	return tree
}

// newTestAccount serves two installations; "Bedroom" exists in both.
func newTestAccount(t *testing.T) (*airzone.Client, *testutil.Cloud) {
	t.Helper()

	cloud := testutil.NewCloud(t, testEmail, testPassword)
	cloud.SetInstallations(
		testutil.FakeInstallation{ID: "inst1", Name: "Home", Groups: []testutil.FakeGroup{
			{ID: "A", Name: "Ground floor", Devices: []testutil.FakeDevice{
				{ID: "sys1", Type: api.DeviceTypeSystem, Name: "System"},
				{ID: "d1", Name: "Living room"},
				{ID: "d2", Name: "Bedroom"},
			}},
		}},
		testutil.FakeInstallation{ID: "inst2", Name: "Cottage", Groups: []testutil.FakeGroup{
			{ID: "B", Name: "Main", Devices: []testutil.FakeDevice{
				{ID: "d3", Name: "Bedroom"},
			}},
		}},
	)
	cloud.SetStatus("d1", testutil.ZoneStatus(2, 3, 0))
	cloud.SetStatus("d2", testutil.ZoneStatus())
	cloud.SetStatus("d3", testutil.ZoneStatus(2, 3))

	transport := api.NewClient(api.NewSession(testEmail, testPassword), api.Options{
		BaseURL: cloud.URL(),
		Timeout: 5 * time.Second,
	})
	return airzone.New(transport, airzone.Options{SettleDelay: -1}), cloud
}

func TestFindDevice(t *testing.T) {
	tree := newTestTree(t)
	if err := loadTopology(context.Background(), tree); err != nil {
		t.Fatalf("loadTopology() error = %v", err)
	}

	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr string
	}{
		{name: "by id", ref: "d3", wantID: "d3"},
		{name: "by name", ref: "Living room", wantID: "d1"},
		{name: "by name case insensitive", ref: "LIVING ROOM", wantID: "d1"},
		{name: "ambiguous name", ref: "bedroom", wantErr: "ambiguous"},
		{name: "system device is not a zone", ref: "sys1", wantErr: "not found"},
		{name: "unknown", ref: "garage", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := findDevice(tree, tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("findDevice(%q) error = %v, want %q", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("findDevice(%q) error = %v", tt.ref, err)
			}
			if d.ID() != tt.wantID {
				t.Errorf("findDevice(%q) = %s, want %s", tt.ref, d.ID(), tt.wantID)
			}
		})
	}
}

func TestFindGroup(t *testing.T) {
	tree := newTestTree(t)
	if err := loadTopology(context.Background(), tree); err != nil {
		t.Fatalf("loadTopology() error = %v", err)
	}

	g, err := findGroup(tree, "ground FLOOR")
	if err != nil {
		t.Fatalf("findGroup() error = %v", err)
	}
	if g.ID() != "A" {
		t.Errorf("findGroup() = %s, want A", g.ID())
	}

	g, err = findGroup(tree, "B")
	if err != nil || g.Name() != "Main" {
		t.Errorf("findGroup(B) = %v, %v", g, err)
	}

	if _, err := findGroup(tree, "attic"); err == nil {
		t.Error("findGroup(attic) expected error")
	}
}

func TestLoadTopologySkipsStatuses(t *testing.T) {
	tree := newTestTree(t)
	if err := loadTopology(context.Background(), tree); err != nil {
		t.Fatalf("loadTopology() error = %v", err)
	}

	devices := tree.AllDevices()
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for _, d := range devices {
		if d.State() != airzone.StateUnknown {
			t.Errorf("%s state = %s, want unknown", d, d.State())
		}
	}
}

func TestParseCelsius(t *testing.T) {
	tests := []struct {
		arg     string
		want    float64
		wantErr bool
	}{
		{arg: "21", want: 21},
		{arg: "21.5", want: 21.5},
		{arg: "21,5", want: 21.5},
		{arg: " 19.0 ", want: 19},
		{arg: "-2", want: -2},
		{arg: "warm", wantErr: true},
		{arg: "NaN", wantErr: true},
		{arg: "Inf", wantErr: true},
		{arg: "-inf", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseCelsius(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCelsius(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseCelsius(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestFormatCelsius(t *testing.T) {
	if got := formatCelsius(21.5, true); got != "21.5°C" {
		t.Errorf("formatCelsius(21.5) = %q", got)
	}
	if got := formatCelsius(20, true); got != "20.0°C" {
		t.Errorf("formatCelsius(20) = %q", got)
	}
	if got := formatCelsius(0, false); got != "-" {
		t.Errorf("formatCelsius(missing) = %q, want -", got)
	}
	if got := formatCelsiusPtr(nil); got != "-" {
		t.Errorf("formatCelsiusPtr(nil) = %q, want -", got)
	}
}

func TestFormatAge(t *testing.T) {
	if got := formatAge(time.Time{}); got != "never" {
		t.Errorf("formatAge(zero) = %q, want never", got)
	}
	if got := formatAge(time.Now().Add(-90 * time.Second)); !strings.HasSuffix(got, " ago") {
		t.Errorf("formatAge() = %q, want suffix ' ago'", got)
	}
}

func TestCommandError(t *testing.T) {
	unknown := &airzone.ValidationError{Target: "group", Mode: "turbo", Err: airzone.ErrUnknownMode}
	if got := commandError("Main", unknown).Error(); !strings.Contains(got, "airzone-cli modes") {
		t.Errorf("unknown mode error = %q, want a hint", got)
	}

	noMaster := &airzone.ValidationError{Target: "group", Mode: "heating", Err: airzone.ErrNotControllingUnit}
	if got := commandError("Main", noMaster); got != error(noMaster) {
		t.Errorf("validation error = %v, want unchanged", got)
	}

	transport := &api.HTTPError{StatusCode: 500}
	got := commandError("Main", transport)
	if !strings.HasPrefix(got.Error(), "Main: command failed") {
		t.Errorf("transport error = %q", got.Error())
	}
}
