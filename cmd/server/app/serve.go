package app

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"arcshare/api/grpcserver"
	"arcshare/arc"
	"arcshare/config"
	"arcshare/infra/kafka"
	"arcshare/infra/ledger"
	"arcshare/jobs/broadcaster"
	"arcshare/service"
)

func newServeCommand(ctx context.Context, o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scenario API and publish reports to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.serve(ctx)
		},
	}
}

func (o *options) serve(ctx context.Context) error {
	log := o.log
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Metrics ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := o.tracker.Register(reg); err != nil {
		return errors.Wrap(err, "register metrics")
	}

	// ---------------- Ledger ----------------

	l, err := ledger.Open(o.cfg.LedgerDir)
	if err != nil {
		return err
	}

	// ---------------- Broadcaster ----------------

	bcCtx, bcCancel := context.WithCancel(context.Background())
	bcDone := make(chan struct{})
	sink, err := newSink(o.cfg, log)
	if err != nil {
		bcCancel()
		return multierror.Append(err, l.Close()).ErrorOrNil()
	}
	if sink != nil {
		bc := broadcaster.New(l, sink.Clone(), broadcaster.Config{
			Interval:    o.cfg.BroadcastInterval,
			Batch:       o.cfg.BroadcastBatch,
			MaxAttempts: o.cfg.MaxAttempts,
		}, log)
		go func() {
			defer close(bcDone)
			bc.Run(bcCtx)
		}()
	} else {
		close(bcDone)
		log.Info("no sink configured, reports stay in the ledger")
	}

	// ---------------- gRPC ----------------

	svc := service.NewScenarioService(l, service.Limits{
		MaxWorkers: o.cfg.MaxWorkers,
		MaxClones:  o.cfg.MaxClones,
	}, log)

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(log)))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc))

	lis, err := net.Listen("tcp", o.cfg.GRPCAddr)
	if err != nil {
		bcCancel()
		<-bcDone
		return multierror.Append(errors.Wrap(err, "listen"), releaseAndClose(sink, l)).ErrorOrNil()
	}

	serveErr := make(chan error, 2)
	go func() {
		log.Info("gRPC listening", "addr", lis.Addr().String())
		serveErr <- grpcSrv.Serve(lis)
	}()

	var httpSrv *http.Server
	if o.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		httpSrv = &http.Server{Addr: o.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("metrics listening", "addr", o.cfg.MetricsAddr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				serveErr <- errors.Wrap(err, "metrics server")
			}
		}()
	}

	// ---------------- Shutdown ----------------

	var result *multierror.Error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		result = multierror.Append(result, err)
	}

	grpcSrv.GracefulStop()
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result = multierror.Append(result, httpSrv.Shutdown(shutdownCtx))
		cancel()
	}
	bcCancel()
	<-bcDone
	result = multierror.Append(result, releaseAndClose(sink, l))

	stats := o.tracker.Stats()
	log.Info("stopped", "cellsAllocated", stats.Allocated, "cellsFreed", stats.Freed, "handlesLeaked", stats.Leaked)
	return result.ErrorOrNil()
}

// newSink builds the configured sink and wraps it in a handle whose last
// release closes the producer. It returns nil when no sink is configured.
func newSink(cfg config.Config, log logr.Logger) (*arc.Handle[kafka.Sink], error) {
	var (
		s   kafka.Sink
		err error
	)
	switch cfg.Sink {
	case config.SinkSarama:
		s, err = kafka.NewSaramaSink(cfg.Brokers, cfg.Topic)
	case config.SinkKafkaGo:
		s = kafka.NewWriterSink(cfg.Brokers, cfg.Topic)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log = log.WithName("sink")
	log.Info("created", "client", cfg.Sink, "brokers", cfg.Brokers, "topic", cfg.Topic)
	return arc.NewWithDrop(s, func(s kafka.Sink) {
		if err := s.Close(); err != nil {
			log.Error(err, "close failed")
			return
		}
		log.Info("closed")
	}), nil
}

func releaseAndClose(sink *arc.Handle[kafka.Sink], l *ledger.Ledger) error {
	if sink != nil {
		sink.Release()
	}
	return errors.Wrap(l.Close(), "close ledger")
}
