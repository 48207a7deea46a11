package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"preacc/internal/config"
	"preacc/internal/http-server/handlers/errors"
	"preacc/internal/http-server/handlers/invoice"
	"preacc/internal/http-server/handlers/ledger"
	"preacc/internal/http-server/handlers/payment"
	"preacc/internal/http-server/handlers/report"
	"preacc/internal/http-server/handlers/stripehandler"
	"preacc/internal/http-server/middleware/authenticate"
	"preacc/internal/http-server/middleware/timeout"
	"preacc/lib/sl"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	stripehandler.Core
	invoice.Core
	ledger.Core
	payment.Core
	report.Core
}

// NewRouter builds the API routes; separated from New for tests.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(conf.Timeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/invoice", func(inv chi.Router) {
			inv.Post("/", invoice.Create(log, handler))
			inv.Get("/", invoice.List(log, handler))
			inv.Post("/pdf", invoice.Render(log, handler))
			inv.Get("/{id}", invoice.Get(log, handler))
			inv.Put("/{id}", invoice.Replace(log, handler))
			inv.Post("/{id}/issue", invoice.Status(log, handler, invoice.Issue, "issue"))
			inv.Post("/{id}/cancel", invoice.Status(log, handler, invoice.Cancel, "cancel"))
			inv.Post("/{id}/paid", invoice.Status(log, handler, invoice.MarkPaid, "paid"))
			inv.Get("/{id}/pdf", invoice.Download(log, handler))
			inv.Post("/{id}/pay", payment.Pay(log, handler))
		})
		rootApi.Route("/ledger", func(led chi.Router) {
			led.Post("/", ledger.Create(log, handler))
			led.Get("/", ledger.List(log, handler))
			led.Get("/summary", ledger.Summary(log, handler))
			led.Get("/export", ledger.Export(log, handler))
			led.Get("/{id}", ledger.Get(log, handler))
			led.Put("/{id}", ledger.Replace(log, handler))
			led.Delete("/{id}", ledger.Delete(log, handler))
		})
		rootApi.Get("/register", report.Register(log, handler))
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/stripe", stripehandler.Event(log, handler))
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(conf, log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
