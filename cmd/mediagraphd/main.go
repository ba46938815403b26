package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/mediagraph/control"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/kernel"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/mediagraph/metrics"
	"github.com/xaionaro-go/mediagraph/pipeline"
	"github.com/xaionaro-go/mediagraph/worker"
	"github.com/xaionaro-go/observability"
	"google.golang.org/grpc"
)

const (
	filterIDGenerator   filter.ID = 1
	filterIDPassthrough filter.ID = 2
	filterIDCounter     filter.ID = 3
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	frameTime := pflag.Duration("frame-time", 40*time.Millisecond, "the frame time of the generator")
	payloadSize := pflag.Uint64("payload-size", 1024, "the size of a generated frame")
	workersCount := pflag.Int("workers", 2, "the amount of workers to spread the filters across")
	duration := pflag.Duration("duration", 0, "stop after this duration; zero means run until interrupted")
	statsInterval := pflag.Duration("stats-interval", time.Second, "how often to print the statistics; zero disables")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	metricsAddr := pflag.String("metrics-listen-addr", "", "an address to serve Prometheus metrics at")
	controlAddr := pflag.String("control-listen-addr", "", "an address to serve the gRPC control service at")
	pflag.Parse()
	if len(pflag.Args()) != 0 || *workersCount < 1 {
		pflag.Usage()
		os.Exit(1)
	}

	ctx, l := logger.NewDefault(context.Background(), loggerLevel)
	defer logger.Flush(ctx)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	if *duration > 0 {
		ctx, cancelFn = context.WithTimeout(ctx, *duration)
		defer cancelFn()
	}

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	m, counter, err := buildGraph(ctx, *frameTime, *payloadSize, *workersCount)
	if err != nil {
		l.Fatal(err)
	}

	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(metrics.NewCollector(ctx, m))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*metricsAddr, mux)) })
	}

	if *controlAddr != "" {
		listener, err := net.Listen("tcp", *controlAddr)
		if err != nil {
			l.Fatalf("unable to listen at '%s': %v", *controlAddr, err)
		}
		grpcServer := grpc.NewServer()
		control.NewServer(m).Register(grpcServer)
		observability.Go(ctx, func(ctx context.Context) {
			<-ctx.Done()
			grpcServer.GracefulStop()
		})
		observability.Go(ctx, func(ctx context.Context) {
			if err := grpcServer.Serve(listener); err != nil {
				l.Error(err)
			}
		})
	}

	l.Debugf("starting the workers")
	if err := m.Start(ctx); err != nil {
		l.Fatal(err)
	}
	defer func() {
		if err := m.Close(ctx); err != nil {
			l.Errorf("unable to close the graph: %v", err)
		}
	}()

	var tickerCh <-chan time.Time
	if *statsInterval > 0 {
		ticker := time.NewTicker(*statsInterval)
		defer ticker.Stop()
		tickerCh = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			l.Infof("received %d frames (%d bytes), lost %d", counter.Frames.Load(), counter.Bytes.Load(), counter.Lost.Load())
			return
		case <-tickerCh:
			b, err := json.Marshal(m.GetState(ctx))
			if err != nil {
				l.Errorf("unable to serialize the state: %v", err)
				continue
			}
			fmt.Printf("%s\n", b)
		}
	}
}

func buildGraph(
	ctx context.Context,
	frameTime time.Duration,
	payloadSize uint64,
	workersCount int,
) (*pipeline.Manager, *kernel.Counter, error) {
	m := pipeline.NewManager()
	counter := kernel.NewCounter()

	filters := map[filter.ID]*filter.Filter{
		filterIDGenerator: filter.NewHead(
			kernel.NewGenerator(payloadSize, frameTime), 1,
			filter.OptionFrameTime(frameTime),
		),
		filterIDPassthrough: filter.NewOneToOne(&kernel.Passthrough{}),
		filterIDCounter:     filter.NewTail(counter, 1),
	}
	for _, id := range []filter.ID{filterIDGenerator, filterIDPassthrough, filterIDCounter} {
		if err := m.AddFilter(ctx, id, filters[id]); err != nil {
			return nil, nil, fmt.Errorf("unable to add filter %d: %w", id, err)
		}
	}

	for id := range workersCount {
		if err := m.AddWorker(ctx, id, worker.New(id)); err != nil {
			return nil, nil, fmt.Errorf("unable to add worker %d: %w", id, err)
		}
	}

	if _, err := m.CreatePath(
		ctx, 1,
		filterIDGenerator, filterIDCounter,
		pipeline.GeneratePortID, pipeline.GeneratePortID,
		[]filter.ID{filterIDPassthrough},
	); err != nil {
		return nil, nil, fmt.Errorf("unable to create the path: %w", err)
	}
	if err := m.ConnectPath(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("unable to connect the path: %w", err)
	}

	for idx, id := range []filter.ID{filterIDGenerator, filterIDPassthrough, filterIDCounter} {
		if err := m.AssignFilter(ctx, idx%workersCount, id); err != nil {
			return nil, nil, fmt.Errorf("unable to assign filter %d: %w", id, err)
		}
	}
	return m, counter, nil
}
