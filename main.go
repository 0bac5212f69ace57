package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log/level"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Swatto86/EventSleuth/internal/config"
	"github.com/Swatto86/EventSleuth/internal/logging"
	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/store"
	"github.com/Swatto86/EventSleuth/internal/winevt"
	"github.com/Swatto86/EventSleuth/internal/xmlparser"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Single-instance guard comes first: a second instance exits
	// normally before touching any user storage.
	release, ok, err := winevt.AcquireSingleInstance(model.SingleInstanceMutexName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "single-instance check failed:", err)
		os.Exit(1)
	}
	if !ok {
		return // already running
	}
	defer release()

	dataDir, err := config.AppDataDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot resolve app data dir:", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot initialise logging:", err)
		os.Exit(1)
	}
	defer closeLog()
	winevt.SetLogger(logger)
	xmlparser.SetLogger(logger)

	prefs, err := config.Load(dataDir)
	if err != nil {
		level.Error(logger).Log("msg", "cannot load preferences", "err", err)
		os.Exit(1)
	}

	settings, err := store.OpenSettings(filepath.Join(dataDir, "settings.db"))
	if err != nil {
		level.Error(logger).Log("msg", "cannot open settings database", "err", err)
		os.Exit(1)
	}

	app := NewApp(logger, prefs, settings)

	appMenu := menu.NewMenu()

	fileMenu := appMenu.AddSubmenu("File")
	fileMenu.AddText("Reload Sources", keys.CmdOrCtrl("r"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:reload")
	})
	fileMenu.AddText("Open Saved Log...", keys.CmdOrCtrl("o"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:import-evtx")
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Export CSV", keys.CmdOrCtrl("e"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:export-csv")
	})
	fileMenu.AddText("Export JSON", keys.CmdOrCtrl("j"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:export-json")
	})
	fileMenu.AddText("Export to Archive...", nil, func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:export-archive")
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(cd *menu.CallbackData) {
		runtime.Quit(app.ctx)
	})

	viewMenu := appMenu.AddSubmenu("View")
	viewMenu.AddText("Statistics", keys.CmdOrCtrl("s"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:stats")
	})
	viewMenu.AddText("Live Tail", keys.CmdOrCtrl("t"), func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:live-tail")
	})
	viewMenu.AddText("Theme...", nil, func(cd *menu.CallbackData) {
		runtime.EventsEmit(app.ctx, "menu:theme")
	})

	err = wails.Run(&options.App{
		Title:  model.AppName + " v" + Version,
		Width:  1400,
		Height: 900,
		Menu:   appMenu,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		level.Error(logger).Log("msg", "wails run failed", "err", err)
		os.Exit(1)
	}
}
