package provisioning

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oshokin/sos-tracker/internal/logger"
)

// Scanner lists the networks in range.
type Scanner interface {
	Scan(ctx context.Context) ([]string, error)
}

// savedMessage is the plain text answer to a successful submission.
const savedMessage = "WiFi credentials saved. The tracker will restart and connect."

// portalShutdownTimeout bounds the graceful stop of the portal server.
const portalShutdownTimeout = 5 * time.Second

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var portalPage = template.Must(template.New("portal").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>WiFi Manager</title>
</head>
<body style="font-family: Arial, sans-serif; max-width: 300px; margin: 0 auto; text-align: center;">
    <h1 style="color: #333; font-size: 24px;">Configure WiFi</h1>
    <form action="/configure" method="post" style="display: flex; flex-direction: column; gap: 10px;">
        <label for="ssid">Select Network:</label>
        <select name="ssid" id="ssid" style="padding: 8px; font-size: 16px;">
            {{- range .Networks}}
            <option value="{{.}}">{{.}}</option>
            {{- end}}
        </select>
        <label for="password">Password:</label>
        <input type="password" id="password" name="password" placeholder="Enter WiFi password" style="padding: 8px; font-size: 16px;">
        <input type="submit" value="Connect" style="padding: 10px; font-size: 16px; background-color: #4CAF50; color: white; border: none;">
    </form>
</body>
</html>
`))

// networksResponse is the body of GET /networks.
type networksResponse struct {
	Networks []string `json:"networks"`
}

// errorResponse is returned for rejected submissions.
type errorResponse struct {
	Message string `json:"message"`
}

// Portal is the HTTP configuration form served while the access point is up.
type Portal struct {
	// echo routes the portal requests.
	echo *echo.Echo
	// store receives submitted credentials.
	store Store
	// scanner lists networks for the form.
	scanner Scanner
	// validate checks submitted credentials.
	validate *validator.Validate
	// saved signals accepted credentials, buffered for one value.
	saved chan Credentials

	// mu protects networks.
	mu sync.Mutex
	// networks is the last successful scan, shown when a rescan fails.
	networks []string
}

// NewPortal creates the portal. initial is shown until a scan succeeds.
func NewPortal(ctx context.Context, store Store, scanner Scanner, initial []string) *Portal {
	p := &Portal{
		echo:     echo.New(),
		store:    store,
		scanner:  scanner,
		validate: validator.New(),
		saved:    make(chan Credentials, 1),
		networks: slices.Clone(initial),
	}

	p.echo.HideBanner = true
	p.echo.HidePort = true

	p.echo.Use(middleware.Recover())
	p.echo.Use(requestLogger(logger.WithName(ctx, "portal")))

	p.echo.GET("/", p.index)
	p.echo.GET("/networks", p.listNetworks)
	p.echo.POST("/configure", p.configure)

	return p
}

// ServeHTTP lets the portal be mounted on any server.
func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.echo.ServeHTTP(w, r)
}

// Saved delivers credentials once they are stored.
func (p *Portal) Saved() <-chan Credentials {
	return p.saved
}

// Serve answers requests on lis until ctx is canceled.
func (p *Portal) Serve(ctx context.Context, lis net.Listener) error {
	p.echo.Listener = lis

	errCh := make(chan error, 1)

	go func() {
		errCh <- p.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve portal: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), portalShutdownTimeout)
	defer cancel()

	if err := p.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown portal: %w", err)
	}

	return nil
}

func (p *Portal) index(c echo.Context) error {
	data := struct {
		Networks []string
	}{
		Networks: p.scan(c.Request().Context()),
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)

	return portalPage.Execute(c.Response(), data)
}

func (p *Portal) listNetworks(c echo.Context) error {
	return c.JSON(http.StatusOK, networksResponse{Networks: p.scan(c.Request().Context())})
}

func (p *Portal) configure(c echo.Context) error {
	ctx := c.Request().Context()

	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid form data"})
	}

	if err := p.validate.Struct(creds); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Validation failed: " + err.Error()})
	}

	if err := p.store.Save(ctx, &creds); err != nil {
		logger.ErrorKV(ctx, "Saving credentials failed", "error", err)

		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to save credentials"})
	}

	logger.InfoKV(ctx, "Credentials saved", "ssid", creds.SSID)

	select {
	case p.saved <- creds:
	default:
	}

	return c.String(http.StatusOK, savedMessage)
}

// scan refreshes the network list, falling back to the last good one.
func (p *Portal) scan(ctx context.Context) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scanner != nil {
		networks, err := p.scanner.Scan(ctx)
		if err == nil {
			p.networks = networks
		} else {
			logger.WarnKV(ctx, "Network scan failed, showing previous results", "error", err)
		}
	}

	return slices.Clone(p.networks)
}

// requestLogger logs every portal request through the context logger.
func requestLogger(ctx context.Context) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.WarnKV(ctx, "Portal request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)

				return nil
			}

			logger.DebugKV(ctx, "Portal request", "method", v.Method, "uri", v.URI, "status", v.Status)

			return nil
		},
	})
}
