// Command cacheproxy is a reverse proxy that forwards requests to an
// upstream through the caching client, so repeated requests are served
// from the configured cache backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redjax/go-httpclient/pkg/client"
	"github.com/redjax/go-httpclient/pkg/logging"
	"github.com/redjax/go-httpclient/pkg/settings"
	"github.com/rs/zerolog"
)

func main() {
	listen := flag.String("listen", ":8080", "address to listen on")
	upstream := flag.String("upstream", "", "upstream base URL (overrides HTTPCLIENT_BASE_URL)")
	cacheType := flag.String("cache", "", "cache backend: sqlite, file or redis (overrides HTTPCLIENT_CACHE_TYPE)")
	settingsFile := flag.String("config", "", "YAML settings file; when set the environment is not consulted")
	flag.Parse()

	var (
		s   *settings.Settings
		err error
	)
	if *settingsFile != "" {
		s, err = settings.FromFile(*settingsFile)
	} else {
		s, err = settings.FromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load settings: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(s.LoggingConfig()).With().Str("component", "cacheproxy").Logger()

	cfg := s.ClientConfig()
	if *upstream != "" {
		cfg.BaseURL = *upstream
	}
	if *cacheType != "" {
		cfg.CacheType = *cacheType
	}
	if cfg.BaseURL == "" {
		logger.Fatal().Msg("upstream base URL is required (-upstream or HTTPCLIENT_BASE_URL)")
	}

	c, err := client.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("create client")
	}
	defer c.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", readyHandler(c, cfg.CacheEnabled))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", proxyHandler(c, logger))

	srv := &http.Server{
		Addr:    *listen,
		Handler: mux,
	}

	go func() {
		logger.Info().
			Str("addr", *listen).
			Str("upstream", cfg.BaseURL).
			Str("cache", cfg.CacheType).
			Msg("cacheproxy listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("cacheproxy stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether the cache backend is reachable. Deleting a
// probe key is a full storage round-trip, and a missing key is not an
// error.
func readyHandler(c *client.Client, cacheEnabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cacheEnabled {
			if err := c.CacheDelete(r.Context(), http.MethodGet, "/cacheproxy-ready-probe"); err != nil {
				http.Error(w, "cache backend unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// hopHeaders are connection-scoped and stripped in both directions.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}

// proxyHandler forwards the incoming request upstream through the caching
// client and relays the answer.
func proxyHandler(c *client.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts []client.RequestOption

		headers := make(map[string]string)
		for key, values := range r.Header {
			if isHopHeader(key) || len(values) == 0 {
				continue
			}
			headers[key] = values[0]
		}
		if len(headers) > 0 {
			opts = append(opts, client.WithHeaders(headers))
		}

		if r.Body != nil {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "read request body", http.StatusBadRequest)
				return
			}
			if len(body) > 0 {
				opts = append(opts, client.WithContent(body))
			}
		}

		req, err := c.Build(r.Method, r.URL.RequestURI(), opts...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := c.Send(r.Context(), req)
		if err != nil {
			writeUpstreamError(w, err, logger)
			return
		}
		writeResponse(w, resp)
	}
}

// writeUpstreamError relays completed exchanges with their upstream
// status and maps transport failures to gateway errors.
func writeUpstreamError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var cerr *client.Error
	if errors.As(err, &cerr) && cerr.Response != nil {
		writeResponse(w, cerr.Response)
		return
	}

	status := http.StatusBadGateway
	if client.KindOf(err) == client.KindTimeout {
		status = http.StatusGatewayTimeout
	}
	logger.Error().Err(err).Msg("proxy request failed")
	http.Error(w, err.Error(), status)
}

func writeResponse(w http.ResponseWriter, resp *client.Response) {
	for key, values := range resp.Headers {
		if isHopHeader(key) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
