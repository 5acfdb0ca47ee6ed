package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/image/font"

	"go_net_viz/data"
	"go_net_viz/encode"
	"go_net_viz/ml"
	"go_net_viz/monitor"
	"go_net_viz/netclient"
	"go_net_viz/render"
	"go_net_viz/tui"
	"go_net_viz/web"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Println("Error:", err)
		os.Exit(2)
	}

	if cfg.UI == "tui" {
		f, err := tea.LogToFile(cfg.LogFile, "netviz")
		if err != nil {
			log.Println("Error:", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	patterns, err := loadPatterns(cfg)
	if err != nil {
		log.Println("Error loading patterns:", err)
		os.Exit(1)
	}
	log.Printf("Loaded %d training patterns\n", len(patterns))

	var face font.Face
	if cfg.Font != "" {
		if face, err = render.LoadFace(cfg.Font, cfg.FontSize); err != nil {
			log.Println("Error:", err)
			os.Exit(1)
		}
	}

	policy := encode.DefaultPolicy()
	policy.ShowBias = cfg.Bias

	display := render.NewDisplay(cfg.Width, cfg.Height, policy, face)
	cell := monitor.NewCell()
	cell.Subscribe(func(state ml.NetworkState, version uint64) {
		if err := display.Draw(state, version); err != nil {
			log.Println("render failed:", err)
		}
	})
	if cfg.PNG != "" {
		cell.Subscribe(func(ml.NetworkState, uint64) {
			if err := display.WriteFile(cfg.PNG); err != nil {
				log.Println("Error:", err)
			}
		})
	}

	client := netclient.New(cfg.Service, nil)
	disp := monitor.NewDispatcher(client, cell, newLogger("dispatch: "))
	poller := monitor.NewPoller(client, cell, cfg.Interval, display.Ready(), newLogger("poll: "))
	set := ml.NewPatternSet(patterns)

	// Setup Ctrl+C handler
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutting down...")
		cancel()
	}()

	if cfg.UI == "tui" {
		err = runTUI(ctx, cancel, cfg, cell, disp, poller, display, set)
	} else {
		err = runWeb(ctx, cfg, cell, disp, poller, display, set)
	}

	// Responses still in flight are dropped from here on.
	cell.Close()
	display.Close()
	cancel()

	if err != nil {
		log.Println("Error:", err)
		os.Exit(1)
	}
}

func newLogger(prefix string) *log.Logger {
	return log.New(log.Writer(), prefix, log.Flags())
}

func loadPatterns(cfg Config) ([]ml.TrainingPattern, error) {
	if cfg.Patterns == "" {
		return ml.XORPatterns(), nil
	}
	patterns, err := data.LoadPatterns(cfg.Patterns, cfg.Outputs)
	if err != nil {
		return nil, err
	}
	mode, err := data.ParseMode(cfg.Scale)
	if err != nil {
		return nil, err
	}
	return patterns, data.ScaleFeatures(patterns, mode)
}

func runWeb(ctx context.Context, cfg Config, cell *monitor.Cell, disp *monitor.Dispatcher,
	poller *monitor.Poller, display *render.Display, set *ml.PatternSet) error {
	srv := web.NewServer(disp, cell, display, set, poller, web.Options{
		Epochs:         cfg.Epochs,
		AllowedOrigins: cfg.Origins,
	}, newLogger("web: "))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	if err := display.Init(); err != nil {
		ln.Close()
		return err
	}
	log.Printf("Visualizer on http://%s, network service %s\n", ln.Addr(), cfg.Service)

	hs := &http.Server{Handler: srv.Handler()}

	wg := sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		srv.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		hs.Shutdown(shutdownCtx)
	}()

	err = hs.Serve(ln)
	cancel()
	wg.Wait()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func runTUI(ctx context.Context, cancel context.CancelFunc, cfg Config, cell *monitor.Cell,
	disp *monitor.Dispatcher, poller *monitor.Poller, display *render.Display, set *ml.PatternSet) error {
	bridge := tui.NewBridge()
	bridge.Attach(cell, disp)

	if err := display.Init(); err != nil {
		return err
	}

	p := tea.NewProgram(tui.New(disp, set, cfg.Epochs), tea.WithAltScreen(), tea.WithContext(ctx))

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		bridge.Run(ctx, p)
	}()
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	_, err := p.Run()
	killed := ctx.Err() != nil
	cancel()
	wg.Wait()
	if killed {
		// stopped by the signal handler
		return nil
	}
	return err
}
