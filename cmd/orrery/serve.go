package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/internal/viewerapi"
	"github.com/signalsfoundry/orrery/internal/wsbridge"
	"github.com/signalsfoundry/orrery/timectrl"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ViewerService over gRPC and renderers over WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.String("grpc-addr", ":50061", "TCP address the ViewerService gRPC server listens on")
	f.String("http-addr", ":8080", "HTTP address for /ws, /metrics, /healthz and /readyz")
	f.Duration("frame-interval", time.Second/30, "time between frames pushed to renderers")
	f.Duration("transition-duration", time.Second, "camera transition length")
	for _, name := range []string{"grpc-addr", "http-addr", "frame-interval", "transition-duration"} {
		_ = viper.BindPFlag(flagKey(name), f.Lookup(name))
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, base, err := loadSessionConfig(ctx, log)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		return err
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		grpcLis.Close()
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		return err
	}
	return run(ctx, cfg, base, log, grpcLis, httpLis)
}

// run serves until ctx is cancelled, then stops both servers gracefully.
func run(ctx context.Context, cfg config.Config, base session.Config, log logging.Logger, grpcLis, httpLis net.Listener) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	viewerMetrics, err := observability.NewViewerCollector(reg)
	if err != nil {
		return fmt.Errorf("init viewer metrics: %w", err)
	}
	sceneMetrics, err := observability.NewSceneCollector(reg)
	if err != nil {
		return fmt.Errorf("init scene metrics: %w", err)
	}

	shared, err := session.New(ctx, withCollectors(base, sceneMetrics, viewerMetrics))
	if err != nil {
		log.Error(ctx, "failed to initialise viewer session", logging.Err(err))
		return err
	}
	defer shared.Close()
	log.Info(ctx, "viewer session ready",
		logging.Float("offset_days", shared.Offset().Days()),
		logging.Int("bodies", len(shared.InitialPositions())),
	)

	server := viewerapi.NewGRPCServer(log, viewerMetrics)
	viewerapi.RegisterViewerServiceServer(server, viewerapi.NewServer(shared, log, viewerapi.WithServerDrivenFrames()))

	bridge := wsbridge.NewHandler(func(ctx context.Context) (*session.Session, error) {
		return session.New(ctx, withCollectors(base, sceneMetrics, viewerMetrics))
	}, wsbridge.Config{
		FrameInterval: cfg.FrameInterval,
		MessageRate:   cfg.WSMessageRate,
		MessageBurst:  cfg.WSMessageBurst,
	}, log, viewerMetrics)

	httpSrv := &http.Server{
		Handler:           newHTTPMux(viewerMetrics, bridge, shared),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info(ctx, "starting ViewerService gRPC server", logging.String("addr", grpcLis.Addr().String()))
	go func() {
		if err := server.Serve(grpcLis); err != nil {
			log.Error(ctx, "gRPC server exited", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving renderers and metrics", logging.String("addr", httpLis.Addr().String()))
	go func() {
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "HTTP server exited", logging.Err(err))
		}
	}()

	tc := timectrl.NewTimeController(timectrl.WallClock{}, cfg.FrameInterval, timectrl.RealTime)
	runFrameLoop(ctx, tc, shared, log)

	log.Info(context.Background(), "shutting down viewer")
	server.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "HTTP shutdown", logging.Err(err))
	}
	return nil
}

// runFrameLoop ticks the shared session on every controller frame until ctx
// is cancelled.
func runFrameLoop(ctx context.Context, tc *timectrl.TimeController, sess *session.Session, log logging.Logger) {
	tc.AddListener(func(now time.Time) {
		if _, err := sess.Tick(ctx, now); err != nil && ctx.Err() == nil {
			log.Warn(ctx, "frame tick failed", logging.Err(err))
		}
	})
	<-tc.Start(ctx, 0)
}

func newHTTPMux(viewerMetrics *observability.ViewerCollector, bridge http.Handler, sess *session.Session) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", viewerMetrics.Handler())
	mux.Handle("/ws", bridge)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if _, err := sess.Snapshot(ctx); err != nil {
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})
	return mux
}
