package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/radarcluster/internal/config"
	"github.com/banshee-data/radarcluster/internal/monitoring"
	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/radar/monitor"
	"github.com/banshee-data/radarcluster/internal/radar/pipeline"
	"github.com/banshee-data/radarcluster/internal/radar/serialsink"
	"github.com/banshee-data/radarcluster/internal/radar/storage/sqlite"
	"github.com/banshee-data/radarcluster/internal/radar/synthetic"
	"github.com/banshee-data/radarcluster/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a JSON tuning config (built-in defaults when empty)")
	frames      = flag.Uint64("frames", 0, "Stop after this many frames (0 runs until interrupted)")
	dbPath      = flag.String("db", "", "SQLite database to record frames into (empty disables recording)")
	serialPort  = flag.String("serial", "", "Serial port to publish objects on (empty disables publishing)")
	listen      = flag.String("listen", ":8080", "HTTP listen address (empty disables the web server)")
	plotDir     = flag.String("plot-dir", "", "Directory for PNG frame plots (empty disables plotting)")
	plotEvery   = flag.Uint64("plot-every", 10, "Plot every Nth frame")
	seed        = flag.Int64("seed", 1, "Seed for the synthetic scene")
	buffers     = flag.Int("buffers", 2, "Device buffers in flight")
	trace       = flag.Bool("trace", false, "Log per-frame timing and objects")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// options is the parsed command line.
type options struct {
	ConfigFile string
	Frames     uint64
	DBPath     string
	SerialPort string
	Listen     string
	PlotDir    string
	PlotEvery  uint64
	Seed       int64
	Buffers    int
	Trace      bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		ConfigFile: *configFile,
		Frames:     *frames,
		DBPath:     *dbPath,
		SerialPort: *serialPort,
		Listen:     *listen,
		PlotDir:    *plotDir,
		PlotEvery:  *plotEvery,
		Seed:       *seed,
		Buffers:    *buffers,
		Trace:      *trace,
	}
	if err := run(ctx, opts, os.Stderr); err != nil {
		log.Fatalf("radar-cluster: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// run wires the synthetic producer, the clustering runner and every
// configured sink, and blocks until the frame limit is reached (and the web
// server, if any, is interrupted) or ctx is cancelled.
func run(ctx context.Context, opts options, logw io.Writer) error {
	var traceW io.Writer
	if opts.Trace {
		traceW = logw
	}
	pipeline.SetLogWriters(logw, logw, traceW)
	logger := log.New(logw, "", log.LstdFlags)
	monitoring.SetLogger(logger.Printf)

	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	params, err := cfg.ClusteringParams()
	if err != nil {
		return err
	}

	proc, err := pipeline.NewProcessor(params)
	if err != nil {
		return err
	}
	ring, err := pipeline.NewBufferRing(opts.Buffers, cfg.GetFrameWidth(), cfg.GetFrameHeight())
	if err != nil {
		return err
	}

	scene := synthetic.NewScene(cfg.GetFrameWidth(), cfg.GetFrameHeight(), opts.Seed)
	if interval := cfg.GetFrameInterval(); interval > 0 {
		scene.FrameInterval = interval
	}
	producer, err := pipeline.NewProducer(pipeline.ProducerConfig{
		Ring:     ring,
		Source:   scene,
		Interval: cfg.GetFrameInterval(),
		Frames:   opts.Frames,
	})
	if err != nil {
		return err
	}

	var sinks pipeline.MultiSink

	var recorder *sqlite.FrameRecorder
	if opts.DBPath != "" {
		recorder, err = sqlite.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer recorder.Close()
		if err := recorder.MigrateUp(); err != nil {
			return err
		}
		recorder.SetRecordObjects(cfg.GetRecordObjects())
		sessionID, err := recorder.StartSession(ctx, params, time.Now())
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.EndSession(context.Background(), time.Now()); err != nil {
				logger.Printf("failed to end session %s: %v", sessionID, err)
			}
		}()
		logger.Printf("recording session %s to %s", sessionID, opts.DBPath)
		sinks = append(sinks, recorder)
	}

	if opts.SerialPort != "" {
		pub, err := serialsink.Open(opts.SerialPort, serialsink.PortOptions{}, cfg.GetSpeedUnits(), nil)
		if err != nil {
			return fmt.Errorf("failed to open serial port: %w", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	var plotter *monitor.FramePlotter
	if opts.PlotDir != "" {
		plotter, err = monitor.NewFramePlotter(opts.PlotDir, opts.PlotEvery)
		if err != nil {
			return err
		}
		sinks = append(sinks, plotter)
	}

	var runner *pipeline.Runner
	var web *monitor.WebServer
	if opts.Listen != "" {
		web, err = monitor.NewWebServer(monitor.WebServerConfig{
			Address:    opts.Listen,
			Stats:      monitor.StatsFunc(func() pipeline.Stats { return runner.Stats() }),
			Clusterer:  proc.Clusterer(),
			Recorder:   recorder,
			Plotter:    plotter,
			SpeedUnits: cfg.GetSpeedUnits(),
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, web)
	}

	runner, err = pipeline.NewRunner(pipeline.RunnerConfig{Processor: proc, Sink: sinks, Ring: ring})
	if err != nil {
		return err
	}

	logger.Printf("clustering %dx%d frames every %v: eps=%g minPts=%d index=%s",
		cfg.GetFrameWidth(), cfg.GetFrameHeight(), cfg.GetFrameInterval(), params.Epsilon, params.MinPts, params.Index)

	g, gctx := errgroup.WithContext(ctx)
	frameCh := make(chan *l1device.Frame, ring.Size())
	g.Go(func() error {
		return ignoreContextDone(producer.Run(gctx, frameCh))
	})
	g.Go(func() error {
		return ignoreContextDone(runner.Run(gctx, frameCh))
	})
	if web != nil {
		g.Go(func() error {
			return web.Start(gctx)
		})
	}
	err = g.Wait()

	s := runner.Stats()
	logger.Printf("processed %d frames (%d dropped), published %d objects, %d sink errors",
		s.FramesProcessed, s.FramesDropped, s.ObjectsPublished, s.SinkErrors)
	return err
}

func ignoreContextDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
