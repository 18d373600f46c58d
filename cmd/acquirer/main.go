// cmd/acquirer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/channel"
	"github.com/tamzrod/potentiostat-acquirer/internal/config"
	"github.com/tamzrod/potentiostat-acquirer/internal/device/sim"
	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/monitor"
	"github.com/tamzrod/potentiostat-acquirer/internal/notify"
	"github.com/tamzrod/potentiostat-acquirer/internal/poller"
	"github.com/tamzrod/potentiostat-acquirer/internal/storage"
	"github.com/tamzrod/potentiostat-acquirer/internal/writer"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/acquirer.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("acquirer %s (built %s)\n", version, buildTime)
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	log := setupLogger(cfg.Log)
	log.Infof("acquirer %s starting, technique=%s channel=%d", version, cfg.Technique.Name, cfg.Device.Channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorf("acquisition failed: %v", err)
		cancel()
		os.Exit(1)
	}
	log.Info("acquirer stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	// ---- monitor ----
	mon := monitor.NewMonitor(log)
	if cfg.Monitor.Enabled {
		mon.StartMetricsServer(cfg.Monitor.MetricsPort)
		mon.StartRuntimeMonitor(ctx, 10*time.Second)
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := mon.Shutdown(sctx); err != nil {
				log.Warnf("metrics server shutdown: %v", err)
			}
		}()
	}

	// ---- publisher ----
	var pub storage.Publisher = storage.Discard{}
	if cfg.Redis.Enabled {
		mq, err := storage.NewMessageQueue(ctx, storage.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			ListMax:  cfg.Redis.ListMax,
		}, log)
		if err != nil {
			return err
		}
		pub = mq
	}
	defer pub.Close()

	// ---- status block ----
	sw, closeStatus, err := writer.BuildStatusWriter(cfg.Status)
	if err != nil {
		return err
	}
	defer closeStatus()

	// ---- operator alerts ----
	var alert notify.Notifier
	if cfg.Notify.Enabled {
		wh, err := notify.NewWebhook(notify.Config{
			URL:     cfg.Notify.URL,
			UserID:  cfg.Notify.UserID,
			Timeout: cfg.Notify.Timeout(),
		})
		if err != nil {
			return err
		}
		alert = wh
	}

	// ---- device + session ----
	dev, err := buildDevice(cfg)
	if err != nil {
		return err
	}

	sess, err := channel.Open(dev, channel.Options{
		Address:      cfg.Device.Address,
		Timeout:      cfg.Device.Timeout(),
		Channel:      cfg.Device.Channel,
		ShowParams:   cfg.Acquisition.ShowParams,
		ExpectDevice: cfg.Device.Type,
	}, log)
	if err != nil {
		postAlert(alert, log, fmt.Sprintf("acquisition could not open channel %d: %v", cfg.Device.Channel, err))
		return err
	}
	defer sess.Disconnect()

	var statusWriter writer.StatusWriter
	if sw != nil {
		statusWriter = sw
	}
	out := newSink(sess.Logger(), mon, pub, statusWriter, sess.Channel(), sess.Family())
	out.notify = alert

	if err := sess.Load(cfg.Technique.Name, cfg.Technique.Settings()); err != nil {
		out.failed(err)
		return err
	}

	coord, err := poller.Build(sess, cfg.Acquisition, mon, sess.Logger())
	if err != nil {
		return err
	}

	if err := sess.Start(); err != nil {
		out.failed(err)
		return err
	}
	out.started(sess.Loaded().ID())

	runID, err := coord.Start(ctx)
	if err != nil {
		sess.Stop()
		return err
	}
	log.WithField("run", runID.String()).Info("run started")

	// ---- signals ----
	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	runErr := awaitRun(sigCtx, coord, out, cfg.Acquisition.StopTimeout())

	if sigCtx.Err() != nil && ctx.Err() == nil {
		log.Info("signal received, run stopped")
	}

	if runErr != nil {
		out.failed(runErr)
		out.disabled()
		return runErr
	}

	out.stopped()
	log.WithField("run", runID.String()).Infof("run finished, %d rows", out.rows)
	return nil
}

// buildDevice returns the instrument driver named by the config.
func buildDevice(cfg *config.Config) (eclib.Device, error) {
	switch cfg.Device.Driver {
	case "sim":
		dt, ok := eclib.ParseDeviceType(cfg.Sim.DeviceType)
		if !ok {
			return nil, fmt.Errorf("sim: unknown device_type %q", cfg.Sim.DeviceType)
		}
		sc := sim.DefaultConfig()
		sc.DeviceType = dt
		sc.RowsPerBatch = cfg.Sim.RowsPerBatch
		sc.FailDataAfter = cfg.Sim.FailDataAfter
		sc.TotalRows = simRows(cfg.Sim.RunSeconds, sc.TimeBase, sc.TicksPerRow)
		return sim.New(sc), nil
	default:
		return nil, fmt.Errorf("device: unsupported driver %q", cfg.Device.Driver)
	}
}

// simRows converts a run length into a row count at the simulated sample rate.
func simRows(seconds float64, timeBase float32, ticksPerRow uint32) int {
	step := float64(timeBase) * float64(ticksPerRow)
	if seconds <= 0 || step <= 0 {
		return 0
	}
	return int(math.Ceil(seconds / step))
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("open log file failed: %v, using stdout", err)
		}
	}

	return log
}
