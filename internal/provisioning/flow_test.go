package provisioning

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-tracker/internal/config"
)

var errAuth = errors.New("authentication rejected")

// fakeRadio records what the flow asked of the wireless interface.
type fakeRadio struct {
	connectErr error
	connected  []Credentials
	apSSID     string
}

func (r *fakeRadio) Connect(_ context.Context, creds Credentials) error {
	r.connected = append(r.connected, creds)

	return r.connectErr
}

func (r *fakeRadio) Scan(context.Context) ([]string, error) {
	return []string{"Home", "Office"}, nil
}

func (r *fakeRadio) StartAccessPoint(_ context.Context, ssid string) error {
	r.apSSID = ssid

	return nil
}

type flowFixture struct {
	store   *FileStore
	radio   *fakeRadio
	reboots int
	flow    *Flow
}

func newFlowFixture(t *testing.T, opts ...FlowOption) *flowFixture {
	t.Helper()

	f := &flowFixture{
		store: NewFileStore(filepath.Join(t.TempDir(), "wifi_config.yaml")),
		radio: new(fakeRadio),
	}

	cfg := config.ProvisioningConfig{
		AccessPointSSID: "GPS_WifiConfig",
		PortalAddress:   "127.0.0.1:0",
	}

	opts = append([]FlowOption{WithReboot(func(context.Context) error {
		f.reboots++

		return nil
	})}, opts...)

	f.flow = NewFlow(cfg, f.store, f.radio, opts...)
	f.flow.restartDelay = 0

	return f
}

// TestFlow_Ensure_Connected returns nil when the saved network is joined.
func TestFlow_Ensure_Connected(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	require.NoError(t, f.store.Save(context.Background(), &Credentials{SSID: "Home", Password: "secret123"}))

	require.NoError(t, f.flow.Ensure(context.Background()))
	require.Equal(t, []Credentials{{SSID: "Home", Password: "secret123"}}, f.radio.connected)
	require.Zero(t, f.reboots)
}

// TestFlow_Ensure_ConnectFails erases the credentials and restarts.
func TestFlow_Ensure_ConnectFails(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)
	f.radio.connectErr = errAuth
	require.NoError(t, f.store.Save(context.Background(), &Credentials{SSID: "Home", Password: "secret123"}))

	err := f.flow.Ensure(context.Background())
	require.ErrorIs(t, err, ErrRestartPending)
	require.Equal(t, 1, f.reboots)

	_, err = f.store.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFlow_Ensure_DebugSkipsReboot still refuses to continue without a network.
func TestFlow_Ensure_DebugSkipsReboot(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t, WithDebug(true))
	f.radio.connectErr = errAuth
	require.NoError(t, f.store.Save(context.Background(), &Credentials{SSID: "Home"}))

	require.ErrorIs(t, f.flow.Ensure(context.Background()), ErrRestartPending)
	require.Zero(t, f.reboots)
}

// TestFlow_Ensure_PortalSubmission runs the portal, accepts a form and restarts.
func TestFlow_Ensure_PortalSubmission(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)

	listening := make(chan net.Listener, 1)
	f.flow.listen = func(ctx context.Context, address string) (net.Listener, error) {
		lis, err := listenTCP(ctx, address)
		if err == nil {
			listening <- lis
		}

		return lis, err
	}

	done := make(chan error, 1)

	go func() {
		done <- f.flow.Ensure(t.Context())
	}()

	lis := <-listening

	form := url.Values{"ssid": {"Office"}, "password": {"secret123"}}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		"http://"+lis.Addr().String()+"/configure", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.ErrorIs(t, <-done, ErrRestartPending)
	require.Equal(t, "GPS_WifiConfig", f.radio.apSSID)
	require.Equal(t, 1, f.reboots)

	creds, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Office", creds.SSID)
}

// TestFlow_RunPortal_Canceled stops the portal without restarting.
func TestFlow_RunPortal_Canceled(t *testing.T) {
	t.Parallel()

	f := newFlowFixture(t)

	ctx, cancel := context.WithCancel(t.Context())

	f.flow.listen = func(ctx context.Context, address string) (net.Listener, error) {
		defer cancel()

		return listenTCP(ctx, address)
	}

	require.NoError(t, f.flow.RunPortal(ctx))
	require.Zero(t, f.reboots)
}
