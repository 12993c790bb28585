package standalone

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	emucore "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/bridge"
	"github.com/user-none/retrohost/libretro"
	"github.com/user-none/retrohost/rdb"
	"github.com/user-none/retrohost/romloader"
	"github.com/user-none/retrohost/standalone/storage"
)

// AppName names the data directory.
const AppName = "retrohost"

// ErrNoCore is returned when no core path was given and none is remembered.
var ErrNoCore = errors.New("no core specified")

// Options configure Run.
type Options struct {
	// CorePath is the libretro core to load. Empty uses the last core.
	CorePath string
	// ContentPath is the game to load. Empty opens a file picker.
	ContentPath string
	// Variables override saved core option values.
	Variables map[string]string
	// DatabasePath is an optional libretro .rdb used to name the content.
	DatabasePath string
	Logger       *zap.Logger
	// Loader binds the core. Nil uses the shared library loader.
	Loader emucore.Loader
}

// host implements ebiten.Game around a running session.
type host struct {
	log     *zap.Logger
	session *bridge.Session
	config  *storage.Config
	romPath string
	dbPath  string

	mapping     InputMapping
	forwarder   *InputForwarder
	renderer    *FramebufferRenderer
	framebuffer *SharedFramebuffer
	audio       *AudioPlayer
	screenshots *ScreenshotManager
	states      *SaveStateManager
}

// Run loads a core and content and plays it in a window until the window is
// closed, Escape is pressed or the core asks to shut down. Save RAM and the
// core's option values are persisted on exit.
func Run(opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loader := opts.Loader
	if loader == nil {
		loader = libretro.Loader{}
	}

	storage.Init(AppName)
	if err := storage.EnsureDirectories(); err != nil {
		return err
	}
	if created, err := storage.CreateConfigIfMissing(); err != nil {
		log.Warn("failed to write default config", zap.Error(err))
	} else if created {
		log.Info("wrote default config")
	}
	config := loadConfig(log)

	corePath := opts.CorePath
	if corePath == "" {
		corePath = config.Core.Path
	}
	if corePath == "" {
		return ErrNoCore
	}

	systemDir, err := storage.GetSystemDir()
	if err != nil {
		return err
	}
	savesDir, err := storage.GetSavesDir()
	if err != nil {
		return err
	}

	h := &host{
		log:         log,
		config:      config,
		dbPath:      opts.DatabasePath,
		mapping:     BuildMappingFromConfig(config.Input.Keyboard, config.Input.Controller),
		renderer:    NewFramebufferRenderer(),
		framebuffer: NewSharedFramebuffer(),
		screenshots: NewScreenshotManager(log),
	}

	h.audio, err = NewAudioPlayer(h.volume())
	if err != nil {
		log.Warn("audio initialization failed", zap.Error(err))
	}

	front := bridge.Frontend{
		Log:   coreLogger(log.Named("core")),
		Video: h.framebuffer.Update,
	}
	if h.audio != nil {
		front.PrepareAudio = h.audio.SetSourceRate
		front.Audio = h.audio.QueueSamples
	}

	session, err := bridge.Open(loader, corePath, bridge.Options{
		Logger:    log,
		SystemDir: systemDir,
		SaveDir:   savesDir,
		Variables: mergeVariables(config, corePath, opts.Variables),
		Frontend:  front,
	})
	if err != nil {
		h.closeAudio()
		return err
	}
	h.session = session
	h.forwarder = NewInputForwarder(session)

	runErr := h.play(opts.ContentPath)

	// Core option values are only known while the core is up
	vars := session.Variables()
	sram, err := session.Close()
	if err != nil {
		log.Warn("core shutdown failed", zap.Error(err))
	}
	h.closeAudio()

	if h.romPath != "" {
		if written, err := storage.WriteSaveRAM(h.romPath, sram); err != nil {
			log.Error("failed to persist save RAM", zap.Error(err))
		} else if written {
			log.Info("persisted save RAM", zap.Int("bytes", len(sram)))
		}
		config.LastROMDir = filepath.Dir(h.romPath)
		config.Core.Path = corePath
		config.Core.Variables = vars
		if err := storage.SaveConfig(config); err != nil {
			log.Warn("failed to save config", zap.Error(err))
		}
	}

	return runErr
}

func (h *host) play(contentPath string) error {
	if err := h.session.Init(); err != nil {
		return err
	}

	if contentPath == "" {
		var err error
		contentPath, err = PickContent(h.config.LastROMDir, h.session.ValidExtensions())
		if err != nil {
			return err
		}
	}

	if err := h.session.LoadGame(contentPath, nil); err != nil {
		return err
	}
	h.romPath = contentPath
	h.states = NewSaveStateManager(contentPath)

	if sram, err := storage.LoadSaveRAM(contentPath); err != nil {
		h.log.Warn("ignoring unreadable save RAM", zap.Error(err))
	} else if sram != nil {
		if err := h.session.SetMemoryData(emucore.MemorySaveRAM, sram); err != nil {
			h.log.Warn("failed to restore save RAM", zap.Error(err))
		}
	}

	info, err := h.session.SystemInfo()
	if err != nil {
		return err
	}
	av, err := h.session.SystemAVInfo()
	if err != nil {
		return err
	}
	h.log.Info("content loaded",
		zap.String("core", info.LibraryName),
		zap.String("version", info.LibraryVersion),
		zap.String("content", contentPath),
		zap.Stringer("av", av))

	ebiten.SetWindowTitle(fmt.Sprintf("%s - %s", info.LibraryName, h.contentTitle(contentPath, info.ValidExtensions)))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w, hgt := windowSize(av.Geometry, h.config.Window.Scale)
	ebiten.SetWindowSize(w, hgt)
	minW, minH := windowSize(av.Geometry, storage.MinWindowScale)
	ebiten.SetWindowSizeLimits(minW, minH, -1, -1)
	ebiten.SetFullscreen(h.config.Window.Fullscreen)

	if !h.session.Start() {
		return errors.New("failed to start frame loop")
	}

	return ebiten.RunGame(h)
}

// Update implements ebiten.Game.
func (h *host) Update() error {
	if h.session.ShutdownRequested() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		h.forwarder.ReleaseAll()
		return ebiten.Termination
	}

	h.pollInput()
	h.handleHotkeys()
	return nil
}

// pollInput reads keyboard and the first gamepad and forwards changes.
func (h *host) pollInput() {
	gamepadIDs := ebiten.AppendGamepadIDs(nil)
	hasGamepad := len(gamepadIDs) > 0

	var gamepadID ebiten.GamepadID
	var x, y float32
	if hasGamepad {
		gamepadID = gamepadIDs[0]
		if !h.config.Input.DisableAnalogStick {
			x, y = PollStick(gamepadID)
		}
	}

	h.forwarder.Apply(PollKeys(h.mapping, gamepadID, hasGamepad), x, y)
}

func (h *host) handleHotkeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		if err := h.states.Save(h.session); err != nil {
			h.log.Warn("save state failed", zap.Error(err))
		} else {
			h.log.Info("state saved", zap.Int("slot", h.states.GetCurrentSlot()))
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		var slot int
		if shift {
			slot = h.states.PreviousSlot()
		} else {
			slot = h.states.NextSlot()
		}
		h.log.Info("state slot", zap.Int("slot", slot), zap.Bool("used", h.states.HasState(slot)))
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		if err := h.states.Load(h.session); err != nil {
			h.log.Warn("load state failed", zap.Error(err))
		} else {
			h.flushAudio()
			h.log.Info("state loaded", zap.Int("slot", h.states.GetCurrentSlot()))
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF4):
		h.config.Audio.Muted = !h.config.Audio.Muted
		if h.audio != nil {
			h.audio.SetVolume(h.volume())
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if err := h.session.Reset(); err != nil {
			h.log.Warn("reset failed", zap.Error(err))
		} else {
			h.flushAudio()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		h.config.Window.Fullscreen = !ebiten.IsFullscreen()
		ebiten.SetFullscreen(h.config.Window.Fullscreen)
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		h.screenshot(shift)
	}
}

func (h *host) screenshot(toClipboard bool) {
	img := h.framebuffer.Image()
	if img == nil {
		return
	}
	var err error
	if toClipboard {
		err = h.screenshots.CopyToClipboard(img)
	} else {
		_, err = h.screenshots.TakeScreenshot(img, h.romPath)
	}
	if err != nil {
		h.log.Warn("screenshot failed", zap.Error(err))
	}
}

// Draw implements ebiten.Game.
func (h *host) Draw(screen *ebiten.Image) {
	pixels, width, height := h.framebuffer.Read()
	if height == 0 {
		return
	}
	aspect := 0.0
	if av, err := h.session.SystemAVInfo(); err == nil {
		aspect = av.Geometry.DisplayAspect()
	}
	h.renderer.DrawFramebuffer(screen, pixels, width, height, aspect)
}

// Layout implements ebiten.Game.
func (h *host) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	return int(float64(outsideWidth) * s), int(float64(outsideHeight) * s)
}

// contentTitle names the content from the database when one is configured
// and knows it, and from the file name otherwise.
func (h *host) contentTitle(contentPath string, extensions []string) string {
	name := storage.ContentName(contentPath)
	if h.dbPath == "" {
		return name
	}

	db, err := rdb.Open(h.dbPath)
	if err != nil {
		h.log.Warn("game database unavailable", zap.Error(err))
		return name
	}
	content, err := romloader.Load(contentPath, romloader.Options{Extensions: extensions})
	if err != nil {
		h.log.Debug("content not hashed", zap.Error(err))
		return name
	}
	game := db.Identify(content.Data)
	if game == nil {
		h.log.Debug("content not in database", zap.Int("games", db.Len()))
		return name
	}
	h.log.Info("identified content", zap.String("name", game.Name), zap.String("serial", game.Serial))
	return game.DisplayName()
}

func (h *host) volume() float64 {
	if h.config.Audio.Muted {
		return 0
	}
	return h.config.Audio.Volume
}

func (h *host) closeAudio() {
	if h.audio != nil {
		h.audio.Close()
	}
}

// flushAudio drops audio queued before a discontinuity in the game.
func (h *host) flushAudio() {
	if h.audio != nil {
		h.audio.ClearQueue()
	}
}

// loadConfig reads config.json, falling back to defaults when it cannot be
// read and correcting out of range values.
func loadConfig(log *zap.Logger) *storage.Config {
	config, err := storage.LoadConfig()
	if err != nil {
		log.Warn("config unreadable, using defaults", zap.Error(err))
		return storage.DefaultConfig()
	}
	if errs := storage.ValidateConfig(config); len(errs) > 0 {
		log.Warn("correcting invalid config values", zap.Strings("errors", errs))
		storage.CorrectConfig(config)
	}
	return config
}

// mergeVariables combines the saved option values of the same core with
// values given on the command line, which win.
func mergeVariables(config *storage.Config, corePath string, overrides map[string]string) map[string]string {
	vars := make(map[string]string)
	if config.Core.Path == corePath {
		for k, v := range config.Core.Variables {
			vars[k] = v
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars
}

// windowSize returns the window size for a frame geometry at an integer
// scale, widened or narrowed to the display aspect.
func windowSize(g emucore.GameGeometry, scale int) (int, int) {
	height := g.BaseHeight * scale
	width := g.BaseWidth * scale
	if aspect := g.DisplayAspect(); aspect > 0 {
		width = int(math.Round(float64(height) * aspect))
	}
	return width, height
}

// coreLogger forwards core log messages to zap at the matching level.
func coreLogger(log *zap.Logger) func(emucore.LogLevel, string) {
	return func(level emucore.LogLevel, msg string) {
		if ce := log.Check(zapLevel(level), msg); ce != nil {
			ce.Write()
		}
	}
}

func zapLevel(level emucore.LogLevel) zapcore.Level {
	switch level {
	case emucore.LogDebug:
		return zapcore.DebugLevel
	case emucore.LogWarn:
		return zapcore.WarnLevel
	case emucore.LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
