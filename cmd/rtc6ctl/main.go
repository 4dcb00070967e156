package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/rtc6-controller/internal/config"
	"github.com/banshee-data/rtc6-controller/internal/connection"
	"github.com/banshee-data/rtc6-controller/internal/controller"
	"github.com/banshee-data/rtc6-controller/internal/correction"
	"github.com/banshee-data/rtc6-controller/internal/db"
	"github.com/banshee-data/rtc6-controller/internal/fsutil"
	"github.com/banshee-data/rtc6-controller/internal/monitoring"
	"github.com/banshee-data/rtc6-controller/internal/motionlist"
	"github.com/banshee-data/rtc6-controller/internal/plan"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
	"github.com/banshee-data/rtc6-controller/internal/version"
)

// options is the parsed command line.
type options struct {
	configPath  string
	dev         bool
	home        bool
	showVersion bool
	cfg         *config.DeviceConfig
	args        []string
}

// parseFlags reads the config file, if any, and lets explicitly set flags
// override it.
func parseFlags(fsys fsutil.FileSystem, args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("rtc6ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Device config file (.json, .yaml or .yml)")
	fs.BoolVar(&opts.dev, "dev", false, "Use the in-process card simulator")
	fs.BoolVar(&opts.home, "home", false, "Jump the beam to (0, 0) after connecting")
	fs.BoolVar(&opts.showVersion, "version", false, "Print the version and exit")
	host := fs.String("box-ip", config.DefaultHost, "IP address of the RTC6 ethernet box")
	programDir := fs.String("program-dir", config.DefaultProgramDir, "Directory with the card program files")
	correctionFile := fs.String("correction-file", config.DefaultCorrectionFile, "Scanner correction table loaded by the card")
	coordTransform := fs.String("coord-transform", config.DefaultCoordTransformFile, "2x2 coordinate transform file")
	retry := fs.Bool("retry-connect", false, "Keep retrying until the card answers")
	binding := fs.String("binding", config.DefaultDriver, "Registered card binding")
	listen := fs.String("listen", config.DefaultListen, "Admin listen address")
	dbPath := fs.String("db", config.DefaultDBPath, "List journal database; empty disables journaling")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.args = fs.Args()

	opts.cfg = &config.DeviceConfig{}
	if opts.configPath != "" {
		cfg, err := config.LoadDeviceConfig(fsys, opts.configPath)
		if err != nil {
			return nil, err
		}
		opts.cfg = cfg
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "box-ip":
			opts.cfg.Host = host
		case "program-dir":
			opts.cfg.ProgramDir = programDir
		case "correction-file":
			opts.cfg.CorrectionFile = correctionFile
		case "coord-transform":
			opts.cfg.CoordTransformFile = coordTransform
		case "retry-connect":
			opts.cfg.RetryConnect = retry
		case "binding":
			opts.cfg.Driver = binding
		case "listen":
			opts.cfg.Listen = listen
		case "db":
			opts.cfg.DBPath = dbPath
		}
	})
	if err := opts.cfg.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// app is the assembled service.
type app struct {
	cfg      *config.DeviceConfig
	ctrl     *controller.Controller
	database *db.DB
	metrics  *monitoring.Metrics
}

func setup(opts *options) (*app, error) {
	cfg := opts.cfg
	driver := cfg.GetDriver()
	if opts.dev {
		driver = "sim"
	}
	card, err := rtc.Open(driver)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: monitoring.NewMetrics()}
	var journal motionlist.Journal
	if path := cfg.GetDBPath(); path != "" {
		a.database, err = db.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		journal = db.NewJournal(a.database, cfg.GetHost())
	}

	corrector := correction.NewCorrector(fsutil.OSFileSystem{}, cfg.GetCoordTransformFile())
	a.ctrl, err = controller.New(card, connection.Params{
		Host:           cfg.GetHost(),
		ProgramDir:     cfg.GetProgramDir(),
		CorrectionFile: cfg.GetCorrectionFile(),
		Retry:          cfg.GetRetryConnect(),
	}, corrector, controller.Options{
		List:    motionlist.Config{MemorySize: cfg.GetListMemorySize(), Slot: cfg.GetListSlot()},
		Journal: journal,
		Metrics: a.metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.ctrl != nil {
		if err := a.ctrl.Close(); err != nil {
			log.Printf("failed to close card link: %v", err)
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			log.Printf("failed to close journal: %v", err)
		}
	}
}

func (a *app) mux() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	a.ctrl.AttachAdminRoutes(mux)
	if a.database != nil {
		if err := a.database.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

func (a *app) stageSettings() plan.Settings {
	return plan.Settings{LaserMode: a.cfg.GetLaserMode(), LaserControl: a.cfg.GetLaserControl()}
}

func run(ctx context.Context, opts *options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ctrl.Connect(ctx); err != nil {
		return err
	}
	if opts.home {
		if err := plan.NewRunner(a.ctrl, a.stageSettings()).GoToHome(); err != nil {
			return err
		}
	}

	mux, err := a.mux()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:    a.cfg.GetListen(),
		Handler: mux,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("admin listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	wg.Wait()
	log.Printf("Graceful shutdown complete")
	return nil
}

func main() {
	opts, err := parseFlags(fsutil.OSFileSystem{}, os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if opts.showVersion {
		fmt.Println(version.String())
		return
	}
	if len(opts.args) > 0 && opts.args[0] == "migrate" {
		if err := db.RunMigrateCommand(opts.args[1:], opts.cfg.GetDBPath(), os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}
	if len(opts.args) > 0 {
		log.Fatalf("unknown command %q", opts.args[0])
	}

	log.Printf("starting %s", version.String())
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}
