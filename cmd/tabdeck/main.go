package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tabdeck/internal/config"
	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/daemon"
	"github.com/1broseidon/tabdeck/internal/drag"
	"github.com/1broseidon/tabdeck/internal/ipc"
	"github.com/1broseidon/tabdeck/internal/mcp"
	"github.com/1broseidon/tabdeck/internal/shell"
	"github.com/1broseidon/tabdeck/internal/store"
	"github.com/1broseidon/tabdeck/internal/xhost"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: tabdeck daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: tabdeck daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "tabs":
		os.Exit(runTabs(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tabdeck <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the tabdeck daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  windows             List live shell windows")
	fmt.Fprintln(w, "  tabs                List every container's tab ordering")
	fmt.Fprintln(w, "  move                Move a tab to a container position")
	fmt.Fprintln(w, "  close               Close a tab or a window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tabdeck <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("Daemon running (uptime %ds)\n", status.UptimeSeconds)
	fmt.Printf("  Windows:  %d\n", status.Windows)
	fmt.Printf("  Tabs:     %d\n", status.Tabs)
	fmt.Printf("  Surfaces: %d\n", status.Surfaces)
	if status.ActiveWindow != "" {
		fmt.Printf("  Active:   %s\n", status.ActiveWindow)
	}
	if status.Dragging {
		fmt.Println("  Drag gesture in progress")
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck windows")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List live shell windows.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if len(data.Windows) == 0 {
		fmt.Println("No windows")
		return 0
	}
	for _, w := range data.Windows {
		marker := " "
		if w.Active {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s", marker, w.ID)
		if w.SelectedSpace != "" {
			line += fmt.Sprintf("  space=%s", w.SelectedSpace)
		}
		if w.SelectedTab != "" {
			line += fmt.Sprintf("  tab=%s", w.SelectedTab)
		}
		fmt.Println(line)
	}
	return 0
}

func runTabs(args []string) int {
	fs := flag.NewFlagSet("tabs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck tabs")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List every container's tab ordering.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.ListTabs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if len(data.Containers) == 0 {
		fmt.Println("No tabs")
		return 0
	}
	for _, ct := range data.Containers {
		fmt.Printf("%s:\n", ct.Container)
		for i, tab := range ct.Tabs {
			fmt.Printf("  %d. %s\n", i, tab)
		}
	}
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	index := fs.Int("index", 0, "insertion index in the destination (clamped)")
	space := fs.String("space", "", "space ID for space_pinned/space_regular destinations")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck move [options] <tab-id> <container>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move a tab into a container. Container is one of:")
		fmt.Fprintln(os.Stderr, "  essentials, space_pinned, space_regular")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	tabID := fs.Arg(0)
	kind, err := container.ParseKind(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	var target container.Container
	switch kind {
	case container.KindEssentials:
		target = container.Essentials()
	case container.KindSpacePinned, container.KindSpaceRegular:
		if *space == "" {
			fmt.Fprintf(os.Stderr, "--space is required for %s destinations\n", kind)
			return 2
		}
		if kind == container.KindSpacePinned {
			target = container.SpacePinned(container.SpaceID(*space))
		} else {
			target = container.SpaceRegular(container.SpaceID(*space))
		}
	default:
		fmt.Fprintf(os.Stderr, "cannot move into container %q\n", fs.Arg(1))
		return 2
	}

	client := ipc.NewClient()
	result, err := client.MoveTab(tabID, target, *index, *space)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !result.Moved {
		fmt.Println("Nothing to do (unknown tab or already in place)")
		return 0
	}
	if result.MovingBetweenContainers {
		fmt.Printf("Moved %s to %s\n", tabID, target)
	} else {
		fmt.Printf("Reordered %s within %s\n", tabID, target)
	}
	return 0
}

func runClose(args []string) int {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	window := fs.Bool("window", false, "close a window instead of a tab")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck close [--window] <id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Close a tab everywhere it is shown, or a window with --window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if *window {
		if err := client.CloseWindow(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Closed window %s\n", fs.Arg(0))
		return 0
	}
	if err := client.CloseTab(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Closed tab %s\n", fs.Arg(0))
	return 0
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck config <validate|print>")
		return 2
	}

	switch args[0] {
	case "validate":
		if _, err := config.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			return 1
		}
		fmt.Println("Configuration valid")
		return 0
	case "print":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: tabdeck config <validate|print>")
		return 2
	}
}

func runMCP(args []string) int {
	if len(args) < 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: tabdeck mcp serve")
		return 2
	}

	srv := mcp.NewServer()
	if err := srv.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func slogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (debounce: %s, reconcile: %s)",
		cfg.SnapshotDebounce(), cfg.ReconcileInterval())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	sh := shell.NewShell(nil)

	// Open the snapshot store and restore the last persisted orderings.
	ctx := context.Background()
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalf("Failed to resolve database path: %v", err)
	}
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	if err := store.ApplyMigrations(ctx, st.DB()); err != nil {
		log.Fatalf("Failed to migrate store: %v", err)
	}

	orders, err := st.LoadOrderings(ctx)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	restored := 0
	for _, order := range orders {
		for _, entry := range order.Entries {
			if sh.RestoreTab(order.Container, entry.Tab, entry.Locator) {
				restored++
			}
		}
	}
	if restored > 0 {
		log.Printf("Restored %d tabs from snapshot", restored)
	}

	// Persist orderings after each quiet period, and every committed move.
	snapshot := func() {
		orders := make([]store.ContainerOrder, 0)
		for _, ct := range sh.Orderings() {
			entries := make([]store.TabEntry, 0, len(ct.Tabs))
			for _, tab := range ct.Tabs {
				entries = append(entries, store.TabEntry{Tab: tab, Locator: sh.Locator(tab)})
			}
			orders = append(orders, store.ContainerOrder{Container: ct.Container, Entries: entries})
		}
		if err := st.ReplaceOrderings(ctx, orders); err != nil {
			logger.Error("snapshot failed", "error", err)
		}
	}
	debouncer := daemon.NewDebouncer(cfg.SnapshotDebounce(), snapshot)
	defer debouncer.Flush()
	sh.OnChange(debouncer.Trigger)
	sh.OnMove(func(op drag.Operation) {
		if err := st.RecordMove(ctx, op); err != nil {
			logger.Error("move log append failed", "error", err)
		}
	})

	log.Println("tabdeck daemon started successfully")

	// Window host: adopt matching X11 windows and keep the registry honest.
	var host *xhost.Host
	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	if cfg.WindowHost.Enabled {
		conn, err := xhost.NewConnection()
		if err != nil {
			log.Fatalf("Failed to connect to display: %v", err)
		}
		defer conn.Close()

		synchronizer := daemon.NewStateSynchronizer(sh, logger)
		host = xhost.NewHost(conn, cfg.WindowHost.Classes, synchronizer, logger)
		if err := host.Watch(); err != nil {
			log.Fatalf("Failed to watch host windows: %v", err)
		}
		sh.SetLivenessProbe(host.Alive)

		reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: cfg.ReconcileInterval(),
			Logger:   logger,
		}, sh, host.ListWindows)
		reconciler.ReconcileNow()
		go reconciler.Run(reconcilerCtx)

		go host.Run()
		log.Printf("Window host watching classes %v", cfg.WindowHost.Classes)
	}

	// Start IPC server
	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(sh, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Handle signals and config reloads
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				reloadConfig()
			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down tabdeck daemon...")
				reconcilerCancel()
				if host != nil {
					host.Stop()
				}
				ipcServer.Stop()
				debouncer.Flush()
				return
			}
		case <-reloadChan:
			log.Println("Reload requested via IPC...")
			reloadConfig()
		}
	}
}

// reloadConfig re-validates the on-disk configuration. Debounce and
// reconcile intervals take effect on the next daemon restart; a reload
// only confirms the file still parses and validates.
func reloadConfig() {
	if _, err := config.Load(); err != nil {
		log.Printf("Config reload failed: %v", err)
		return
	}
	log.Println("Config reloaded successfully")
}
