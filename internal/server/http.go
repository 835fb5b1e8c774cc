package server

import (
	"net"
	nethttp "net/http"

	"Proofline/internal/conf"
	"Proofline/internal/server/middleware"
	"Proofline/internal/service"
	pkglog "Proofline/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	admin *conf.Admin,
	recipes *service.RecipeService,
	ingredients *service.IngredientService,
	lots *service.LotService,
	runs *service.ProductionService,
	reports *service.ReportService,
	health *service.HealthService,
	logger log.Logger,
) (*http.Server, error) {
	logHelper := pkglog.NewLogHelper(logger)

	adminKey := ""
	if admin != nil {
		adminKey = admin.ApiKey
	}

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.Filter(
			middleware.RequestLog(logHelper), // request ID, client IP, access log
			middleware.AdminKey(adminKey, logHelper),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}

	// A connection cap protects the database pool behind the server: past the
	// limit, new connections queue at accept instead of piling onto MySQL.
	if c.Http.MaxConnections > 0 {
		network := c.Http.Network
		if network == "" {
			network = "tcp"
		}
		addr := c.Http.Addr
		if addr == "" {
			addr = ":0"
		}
		ln, err := net.Listen(network, addr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, http.Listener(netutil.LimitListener(ln, int(c.Http.MaxConnections))))
		logHelper.Startup("connection limit enabled",
			"addr", addr,
			"max_connections", c.Http.MaxConnections,
		)
	}

	srv := http.NewServer(opts...)

	api := srv.Route("/api/v1")
	recipes.RegisterRoutes(api)
	ingredients.RegisterRoutes(api)
	lots.RegisterRoutes(api)
	runs.RegisterRoutes(api)
	reports.RegisterRoutes(api)
	health.RegisterRoutes(api)

	adminAPI := srv.Route("/api/v1/admin")
	health.RegisterAdminRoutes(adminAPI)

	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return srv, nil
}
