package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/bindings"
	"github.com/MJE43/roulette-desktop/internal/config"
	"github.com/MJE43/roulette-desktop/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	appName          = "roulette"
	appConfigDirName = "roulette-desktop"
	repoURL          = "https://github.com/MJE43/roulette-desktop"
)

var (
	appCtx   context.Context
	appCtxMu sync.RWMutex
)

func buildWindowsOptions(log *zap.Logger) *windows.Options {
	return &windows.Options{
		BackdropType: windows.Mica,
		Theme:        windows.SystemDefault,
		CustomTheme: &windows.ThemeSettings{
			// Dark mode matches the felt background
			DarkModeTitleBar:  windows.RGB(12, 52, 36),
			DarkModeTitleText: windows.RGB(236, 240, 241),
			DarkModeBorder:    windows.RGB(20, 80, 56),

			LightModeTitleBar:  windows.RGB(248, 250, 252),
			LightModeTitleText: windows.RGB(15, 23, 42),
			LightModeBorder:    windows.RGB(226, 232, 240),
		},
		WebviewIsTransparent: false,
		WindowIsTranslucent:  false,
		DisablePinchZoom:     true,
		IsZoomControlEnabled: false,
		ZoomFactor:           1.0,
		WindowClassName:      "RouletteWindow",
		OnSuspend: func() {
			log.Info("windows entering low power mode")
		},
		OnResume: func() {
			log.Info("windows resuming from low power mode")
		},
	}
}

func buildMacOptions() *mac.Options {
	aboutIcon, _ := assets.ReadFile("frontend/dist/assets/logo.png")
	return &mac.Options{
		TitleBar: &mac.TitleBar{
			HideToolbarSeparator: true,
		},
		About: &mac.AboutInfo{
			Title: "Roulette",
			Message: "A single-player European roulette table with a balance chart and a batch simulator.\n\n" +
				"Built with Wails\n\n" +
				"Play money only. Nothing leaves this machine.",
			Icon: aboutIcon,
		},
	}
}

func buildLinuxOptions() *linux.Options {
	windowIcon, _ := assets.ReadFile("frontend/dist/assets/logo.png")
	return &linux.Options{
		Icon:             windowIcon,
		WebviewGpuPolicy: linux.WebviewGpuPolicyAlways,
		ProgramName:      "roulette",
	}
}

func main() {
	cfgPath := flag.String("config", "roulette.yaml", "path to the YAML config (optional)")
	envPath := flag.String("env", ".env", "path to a dotenv file (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Log.Dir != "" && !filepath.IsAbs(cfg.Log.Dir) {
		cfg.Log.Dir = filepath.Join(appDataDir(), cfg.Log.Dir)
	}
	log := logging.New(logging.Config{
		Level: cfg.Log.Level,
		App:   appName,
		Dir:   cfg.Log.Dir,
		File:  cfg.Log.File,
	})
	defer log.Sync()

	log.Info("starting",
		zap.String("go", runtime.Version()),
		zap.String("rng", cfg.RNG.Mode),
		zap.Bool("http", cfg.HTTP.Enabled),
	)

	app, err := bindings.NewApp(cfg, log)
	if err != nil {
		log.Fatal("game init failed", zap.Error(err))
	}

	startup := func(ctx context.Context) {
		setAppContext(ctx)
		if err := app.Startup(ctx); err != nil {
			// the desktop UI still works without the local API
			log.Error("local api failed to start", zap.Error(err))
			return
		}
		if cfg.HTTP.Enabled {
			log.Info("local api ready",
				zap.String("url", "http://"+cfg.HTTPAddr()),
				zap.Bool("token", cfg.HTTP.Token != ""),
			)
		}
	}

	beforeClose := func(ctx context.Context) (prevent bool) {
		if err := app.Shutdown(ctx); err != nil {
			log.Warn("game shutdown", zap.Error(err))
		}
		setAppContext(nil)
		log.Info("application is closing")
		return false
	}

	if err := wails.Run(&options.App{
		Title:            "Roulette",
		Width:            1024,
		Height:           720,
		MinWidth:         800,
		MinHeight:        600,
		WindowStartState: options.Normal,
		BackgroundColour: &options.RGBA{R: 12, G: 52, B: 36, A: 255},

		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		OnStartup:     startup,
		OnBeforeClose: beforeClose,
		OnDomReady: func(ctx context.Context) {
			log.Debug("dom ready")
		},
		OnShutdown: func(ctx context.Context) {
			log.Info("application shutdown complete")
		},

		Menu: buildAppMenu(app.Game(), cfg.Log.Dir),
		Bind: []interface{}{app.Game()},

		Logger:             logging.NewWails(log),
		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,

		EnableDefaultContextMenu:         false,
		EnableFraudulentWebsiteDetection: false,

		ErrorFormatter: func(err error) any {
			if err == nil {
				return nil
			}
			return err.Error()
		},

		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "5b0e3c1a-6f0d-4a8e-9d2b-roulette-desktop",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				log.Info("second instance launch prevented", zap.Strings("args", data.Args))
			},
		},

		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop:     false,
			DisableWebViewDrop: true,
		},

		Windows: buildWindowsOptions(log),
		Mac:     buildMacOptions(),
		Linux:   buildLinuxOptions(),
	}); err != nil {
		log.Fatal("wails run", zap.Error(err))
	}

	log.Info("application exited normally")
}

// appDataDir returns an OS-appropriate writable directory.
func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}

func buildAppMenu(game *bindings.GameModule, logDir string) *menu.Menu {
	rootMenu := menu.NewMenu()

	if runtime.GOOS == "darwin" {
		if appMenu := menu.AppMenu(); appMenu != nil {
			rootMenu.Append(appMenu)
		}
	}

	gameMenu := menu.NewMenu()
	gameMenu.AddText("Spin", keys.CmdOrCtrl("s"), func(_ *menu.CallbackData) {
		if _, err := game.Spin(); err != nil {
			withAppContext(func(ctx context.Context) {
				wruntime.LogWarningf(ctx, "spin: %v", err)
			})
		}
	})
	gameMenu.AddText("Simulate", keys.CmdOrCtrl("m"), func(_ *menu.CallbackData) {
		if _, err := game.Simulate(0); err != nil {
			withAppContext(func(ctx context.Context) {
				wruntime.LogWarningf(ctx, "simulate: %v", err)
			})
		}
	})
	gameMenu.AddText("New Session", keys.CmdOrCtrl("n"), func(_ *menu.CallbackData) {
		if _, err := game.Reset(); err != nil {
			withAppContext(func(ctx context.Context) {
				wruntime.LogWarningf(ctx, "reset: %v", err)
			})
		}
	})
	gameMenu.AddSeparator()
	gameMenu.AddText("Open Log Directory", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			openPathInExplorer(ctx, logDir)
		})
	})
	gameMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.Quit(ctx)
		})
	})
	rootMenu.Append(menu.SubMenu("Game", gameMenu))

	viewMenu := menu.NewMenu()
	viewMenu.AddText("Reload Frontend", keys.CmdOrCtrl("r"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.WindowReloadApp(ctx)
		})
	})
	viewMenu.AddText("Toggle Fullscreen", keys.Combo("f", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		withAppContext(toggleFullscreen)
	})
	rootMenu.Append(menu.SubMenu("View", viewMenu))

	helpMenu := menu.NewMenu()
	helpMenu.AddText("Project Repository", nil, func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, repoURL)
		})
	})
	rootMenu.Append(menu.SubMenu("Help", helpMenu))

	return rootMenu
}

func openPathInExplorer(ctx context.Context, path string) {
	if path == "" {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	wruntime.BrowserOpenURL(ctx, fileURI(abs))
}

func fileURI(path string) string {
	clean := filepath.ToSlash(path)
	if runtime.GOOS == "windows" && len(clean) > 0 && clean[0] != '/' {
		clean = "/" + clean
	}
	u := url.URL{Scheme: "file", Path: clean}
	return u.String()
}

func toggleFullscreen(ctx context.Context) {
	if wruntime.WindowIsFullscreen(ctx) {
		wruntime.WindowUnfullscreen(ctx)
		return
	}
	wruntime.WindowFullscreen(ctx)
}

func setAppContext(ctx context.Context) {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()
	appCtx = ctx
}

func withAppContext(action func(context.Context)) {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()
	if ctx == nil {
		return
	}
	action(ctx)
}
