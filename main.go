package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/imarchand/pirobot-remote/internal/binding"
	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/client"
	"github.com/imarchand/pirobot-remote/internal/command"
	"github.com/imarchand/pirobot-remote/internal/config"
	"github.com/imarchand/pirobot-remote/internal/dispatch"
	"github.com/imarchand/pirobot-remote/internal/editor"
	"github.com/imarchand/pirobot-remote/internal/gamepad"
	"github.com/imarchand/pirobot-remote/internal/input"
	"github.com/imarchand/pirobot-remote/internal/robot"
	"github.com/imarchand/pirobot-remote/internal/transport"
	"github.com/imarchand/pirobot-remote/internal/ui"
)

const Version = "1.0.0"

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list-devices":
			runListDevices()
			return
		case "configure":
			runConfigure(os.Args[2:])
			return
		case "version":
			ui.PrintVersion(Version)
			os.Exit(0)
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	host := flag.String("host", "", "robot host (overrides config)")
	configPath := flag.String("config", "", "path to remote.yaml")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	setupLogging(*verbose)

	userDir, cfg := loadConfig(*configPath)
	if *host != "" {
		cfg.Host = *host
	}
	if cfg.Host == "" {
		hosts := config.LoadHostHistory(userDir)
		if len(hosts) > 0 {
			cfg.Host = hosts[len(hosts)-1]
		}
	}
	if cfg.Host == "" {
		ui.PrintFatalError("No robot host configured",
			"Pass -host or set host in "+filepath.Join(userDir, "remote.yaml"))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Debug("received shutdown signal")
		cancel()
	}()

	app, err := newApp(ctx, cancel, userDir, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := config.SaveHostHistory(userDir, cfg.Host); err != nil {
		slog.Warn("unable to update host history", "error", err)
	}

	app.Run(ctx)
	slog.Debug("shutdown complete")
}

func printUsage() {
	ui.PrintUsage(Version)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves the user config directory and reads remote.yaml.
func loadConfig(configPath string) (string, *config.Config) {
	userDir, err := binding.DefaultDir()
	if err != nil {
		log.Fatalf("Failed to resolve config directory: %v", err)
	}
	if configPath == "" {
		configPath = filepath.Join(userDir, "remote.yaml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return userDir, cfg
}

// runListDevices handles the list-devices subcommand
func runListDevices() {
	ui.PrintDeviceList(gamepad.ListHID())
}

// engine bundles the wired input pipeline shared by the run and configure
// modes.
type engine struct {
	catalog    *catalog.Catalog
	store      *binding.Store
	tracker    *robot.Tracker
	dispatcher *dispatch.Dispatcher
	composer   *dispatch.Composer
	client     *client.Client
	userDir    string
}

func newEngine(userDir string, cfg *config.Config, t transport.Transport, app dispatch.AppControl) (*engine, error) {
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	store := binding.NewStore(cat)
	store.Load(userDir)

	tracker := robot.NewTracker()
	dispatcher := dispatch.NewDispatcher(cat, t, tracker, app)
	composer := dispatch.NewComposer(dispatcher.DispatchAxis)
	cl := client.New(store, cat, composer, dispatcher, tracker)

	return &engine{
		catalog:    cat,
		store:      store,
		tracker:    tracker,
		dispatcher: dispatcher,
		composer:   composer,
		client:     cl,
		userDir:    userDir,
	}, nil
}

func (e *engine) pollerConfig(cfg *config.Config) gamepad.Config {
	pc := gamepad.DefaultConfig()
	pc.PollInterval = time.Duration(cfg.Gamepad.PollIntervalMs) * time.Millisecond
	pc.RescanInterval = time.Duration(cfg.Gamepad.RescanIntervalMs) * time.Millisecond
	pc.Deadzone = cfg.Gamepad.Deadzone
	pc.HatAxisBase = cfg.Gamepad.HatAxisBase
	pc.MaxDevices = cfg.Gamepad.MaxDevices
	return pc
}

// App is the interactive remote-control session.
type App struct {
	engine *engine
	cfg    *config.Config
	cancel context.CancelFunc

	transport transport.Transport
	connected func() bool
	runner    func(context.Context)
	watcher   *binding.Watcher
}

func newApp(ctx context.Context, cancel context.CancelFunc, userDir string, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg, cancel: cancel}

	var t transport.Transport
	var receiver transport.Receiver
	switch cfg.Transport {
	case "tcp":
		c := transport.NewTCPClient(cfg.Host)
		t, receiver, app.runner, app.connected = c, c, c.Run, c.Connected
	default:
		c := transport.NewWebSocketClient(cfg.Host)
		t, receiver, app.runner, app.connected = c, c, c.Run, c.Connected
	}
	app.transport = t

	eng, err := newEngine(userDir, cfg, t, app)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	app.engine = eng

	receiver.RegisterConsumer("status", eng.client.ConsumeStatus)
	eng.tracker.OnUpdate(func(rc robot.Config) {
		slog.Info("robot ready", "robot", rc.Name)
	})
	eng.client.OnNewDevice(func(guid input.DeviceID, name string) {
		slog.Info("new gamepad has no bindings; run `pirobot-remote configure`",
			"guid", guid, "name", name)
	})

	// Pick up binding edits made while running.
	if config.Exists(userDir) {
		watcher, err := binding.NewWatcher(userDir, eng.store)
		if err != nil {
			slog.Warn("binding watcher unavailable", "error", err)
		} else {
			app.watcher = watcher
		}
	}

	return app, nil
}

// Run blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Start()
		defer a.watcher.Stop()
	}

	go a.runner(ctx)
	go a.requestConfiguration(ctx)

	poller := gamepad.NewPoller(a.engine.pollerConfig(a.cfg), a.engine.client)
	poller.Run(ctx)
}

// requestConfiguration asks the robot for its configuration once per
// established connection, so capability gates open as soon as the robot
// reports in.
func (a *App) requestConfiguration(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	wasConnected := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			connected := a.connected()
			if connected && !wasConnected {
				if result := a.transport.Send(command.GetConfiguration{}); result != transport.Ok {
					slog.Debug("configuration request not sent", "result", result)
				}
			}
			wasConnected = connected
		}
	}
}

// Close implements dispatch.AppControl: the app_close action shuts the
// session down.
func (a *App) Close() {
	a.cancel()
}

// PromptMessage implements dispatch.AppControl: read a line from the
// terminal and play it on the robot.
func (a *App) PromptMessage(destination string) {
	go func() {
		fmt.Printf("Message for %s: ", destination)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		cmd := command.PlayMessage{Message: line, Destination: destination}
		if result := a.transport.Send(cmd); result != transport.Ok {
			slog.Warn("unable to play message", "result", result)
		}
	}()
}

// runConfigure handles the configure subcommand: an interactive binding
// editor over the capture API.
func runConfigure(args []string) {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	configPath := fs.String("config", "", "path to remote.yaml")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	setupLogging(*verbose)

	userDir, cfg := loadConfig(*configPath)

	eng, err := newEngine(userDir, cfg, transport.Discard{}, nil)
	if err != nil {
		ui.PrintFatalError("Failed to initialize engine", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pads := newPadRegistry(eng.client)
	poller := gamepad.NewPoller(eng.pollerConfig(cfg), pads)
	go poller.Run(ctx)

	session := editor.NewSession(eng.store, eng.catalog, eng.client, userDir)
	defer session.Close()

	// Let slow gamepads enumerate before the first prompt.
	time.Sleep(200 * time.Millisecond)

	for {
		choice, ok, err := ui.SelectScope(pads.list())
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if !ok {
			break
		}

		scope := editor.GamepadScope(choice.GUID, choice.Name)
		if choice.GUID == input.KeyboardDevice {
			scope = editor.KeyboardScope()
		}
		if err := configureScope(ctx, eng, session, scope); err != nil {
			ui.PrintFatalError("Capture failed", err.Error())
			os.Exit(1)
		}
	}

	if err := session.Save(); err != nil {
		ui.PrintFatalError("Failed to save bindings", err.Error())
		os.Exit(1)
	}
	ui.PrintSaved(userDir)
}

// configureScope runs the action-capture loop for one device.
func configureScope(ctx context.Context, eng *engine, session *editor.Session, scope editor.Scope) error {
	// Only offer actions the robot can currently perform; with no robot
	// connected that hides capability-gated actions.
	var offered []catalog.Action
	for _, a := range eng.catalog.All() {
		if eng.dispatcher.Allowed(a.ID) {
			offered = append(offered, a)
		}
	}

	for {
		actionID, ok, err := ui.SelectAction(offered)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		action := eng.catalog.ByID(actionID)

		ev, err := captureBinding(ctx, eng, session, scope, action)
		if err != nil {
			return err
		}
		if ev != nil {
			ui.PrintBinding(action.DisplayName(), session.BindingsForAction(scope, actionID))
		}
	}
}

// captureBinding arms the session's exclusive capture listener and feeds it
// either the next gamepad event or a key read from the terminal.
func captureBinding(ctx context.Context, eng *engine, session *editor.Session, scope editor.Scope, action *catalog.Action) (*input.Event, error) {
	captureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	type result struct {
		ev  input.Event
		err error
	}
	results := make(chan result, 1)
	go func() {
		ev, err := session.Capture(captureCtx, scope, action.ID)
		results <- result{ev: ev, err: err}
	}()

	if scope.Device == input.KeyboardDevice {
		code, ok, err := ui.CaptureKey(action.DisplayName())
		if err != nil {
			cancel()
			<-results
			return nil, err
		}
		if !ok {
			cancel()
			<-results
			return nil, nil
		}
		eng.client.KeyEvent(code, true)
	} else {
		fmt.Println(ui.Muted(fmt.Sprintf("Press a button, move a stick or hat on %s...", scope.Name)))
	}

	r := <-results
	if r.err != nil {
		if captureCtx.Err() != nil {
			fmt.Println(ui.Muted("Capture cancelled"))
			return nil, nil
		}
		return nil, r.err
	}
	return &r.ev, nil
}

// padRegistry tracks connected gamepads for the configure menus while
// forwarding lifecycle and input events to the client.
type padRegistry struct {
	*client.Client
	mu   sync.Mutex
	pads map[input.DeviceID]string
}

func newPadRegistry(cl *client.Client) *padRegistry {
	return &padRegistry{Client: cl, pads: make(map[input.DeviceID]string)}
}

func (r *padRegistry) DeviceAdded(guid input.DeviceID, name string) {
	r.mu.Lock()
	r.pads[guid] = name
	r.mu.Unlock()
	r.Client.DeviceAdded(guid, name)
}

func (r *padRegistry) DeviceRemoved(guid input.DeviceID) {
	r.mu.Lock()
	delete(r.pads, guid)
	r.mu.Unlock()
	r.Client.DeviceRemoved(guid)
}

func (r *padRegistry) list() []ui.PadChoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ui.PadChoice, 0, len(r.pads))
	for guid, name := range r.pads {
		out = append(out, ui.PadChoice{GUID: guid, Name: name})
	}
	return out
}
