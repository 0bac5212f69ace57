package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/Swatto86/EventSleuth/internal/config"
	"github.com/Swatto86/EventSleuth/internal/export"
	"github.com/Swatto86/EventSleuth/internal/filter"
	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/session"
	"github.com/Swatto86/EventSleuth/internal/store"
	"github.com/Swatto86/EventSleuth/internal/winevt"
)

// App is the main application struct that Wails binds to the frontend.
// All exported methods become callable from JavaScript. It is the
// consumer of the session coordinator: the frontend polls Snapshot each
// frame and issues commands through the other methods.
type App struct {
	ctx      context.Context
	logger   log.Logger
	prefs    *config.Prefs
	settings *store.Settings
	session  *session.Session

	// debouncedFilter delays text-input filter updates; checkbox and
	// numeric updates go through UpdateFilter directly.
	debouncedFilter func(f func())
}

// NewApp creates a new App instance.
func NewApp(logger log.Logger, prefs *config.Prefs, settings *store.Settings) *App {
	return &App{
		logger:          logger,
		prefs:           prefs,
		settings:        settings,
		session:         session.New(winevt.NewSource(), logger),
		debouncedFilter: debounce.New(model.FilterDebounce),
	}
}

// startup is called when the app starts. The context is saved so we
// can call runtime methods (dialogs, events, etc.)
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	a.session.Cancel()
	if a.settings != nil {
		a.settings.Close()
	}
	if a.prefs != nil {
		a.prefs.Save()
	}
}

// -- Source Discovery --

// EnumerateSources returns every event channel on this host, sorted.
// A failed enumeration returns an empty list; the error is logged and
// surfaced as a toast event, never a panic.
func (a *App) EnumerateSources() []string {
	channels, err := winevt.EnumerateChannels()
	if err != nil {
		level.Warn(a.logger).Log("msg", "channel enumeration failed", "err", err)
		runtime.EventsEmit(a.ctx, "sources:error", err.Error())
		return []string{}
	}
	level.Info(a.logger).Log("msg", "enumerated channels", "count", len(channels))
	return channels
}

// CommonSources returns the classic Windows Logs subset of the given
// channel list, used for the default selection.
func (a *App) CommonSources(all []string) []string {
	return winevt.CommonChannels(all)
}

// SourceGroup returns the display group for one channel name.
func (a *App) SourceGroup(channel string) string {
	return winevt.CategoriseChannel(channel)
}

// -- Session Operations --

// StartSession begins loading the selected channels with the given
// filter. A filter that fails to compile is returned as an error for
// inline display; nothing is loaded in that case.
func (a *App) StartSession(channels []string, in filter.Input, maxPerChannel int, reverseChrono bool) (string, error) {
	st, err := filter.Compile(in)
	if err != nil {
		return "", err
	}
	a.session.Start(channels, st, maxPerChannel, reverseChrono)
	return a.session.ID(), nil
}

// StartFileSession loads a .evtx file through the same pipeline.
func (a *App) StartFileSession(path string, in filter.Input, maxEvents int) (string, error) {
	st, err := filter.Compile(in)
	if err != nil {
		return "", err
	}
	a.session.StartFile(path, st, maxEvents)
	return a.session.ID(), nil
}

// ImportEvtx opens a file dialog for a .evtx file and starts a file
// session over it with a pass-all filter.
func (a *App) ImportEvtx() (string, error) {
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Saved Event Log",
		Filters: []runtime.FileFilter{
			{DisplayName: "Event Log Files (*.evtx)", Pattern: "*.evtx"},
			{DisplayName: "All Files (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil // user cancelled
	}
	return a.StartFileSession(path, filter.Input{}, a.prefs.MaxEvents())
}

// CancelSession requests cancellation of all running readers and
// returns immediately. Idempotent.
func (a *App) CancelSession() {
	a.session.Cancel()
}

// Snapshot returns the per-frame view of the session: counts, filtered
// indices, stats, progress, and errors. The frontend polls this.
func (a *App) Snapshot() session.Snapshot {
	return a.session.Frame()
}

// EventDetail returns the full record at a master-list index for the
// detail panel, or nil when the index is stale.
func (a *App) EventDetail(index int) *model.EventRecord {
	return a.session.Record(index)
}

// -- Filtering --

// UpdateFilter re-compiles and applies the filter immediately. Used
// for checkboxes, level toggles, and numeric inputs.
func (a *App) UpdateFilter(in filter.Input) error {
	st, err := filter.Compile(in)
	if err != nil {
		return err
	}
	a.session.UpdateFilter(st)
	return nil
}

// UpdateFilterDebounced applies a text-input filter change after the
// debounce interval. Compile errors are emitted on the filter:error
// event since the call returns before compilation happens.
func (a *App) UpdateFilterDebounced(in filter.Input) {
	a.debouncedFilter(func() {
		if err := a.UpdateFilter(in); err != nil {
			runtime.EventsEmit(a.ctx, "filter:error", err.Error())
		}
	})
}

// SetSort sets the active sort column and direction.
func (a *App) SetSort(column string, ascending bool) {
	a.session.SetSort(session.SortColumn(column), ascending)
}

// SelectEvent records the current selection (-1 clears it).
func (a *App) SelectEvent(index int) {
	a.session.Select(index)
}

// ToggleBookmark flips a bookmark and returns its new state.
func (a *App) ToggleBookmark(index int) bool {
	return a.session.ToggleBookmark(index)
}

// SetBookmarksOnly restricts the view to bookmarked events.
func (a *App) SetBookmarksOnly(on bool) {
	a.session.SetShowBookmarksOnly(on)
}

// TimePresetLastHours returns the RFC 3339 lower bound for a "last N
// hours" quick filter.
func (a *App) TimePresetLastHours(hours int) string {
	return filter.LastHoursBound(hours)
}

// TimePresetToday returns the RFC 3339 lower bound for the "today"
// quick filter.
func (a *App) TimePresetToday() string {
	return filter.TodayBound()
}

// -- Live Tail --

// EnableLiveTail arms periodic incremental re-query. intervalSecs <= 0
// selects the default interval.
func (a *App) EnableLiveTail(intervalSecs int) {
	a.session.EnableTail(time.Duration(intervalSecs) * time.Second)
}

// DisableLiveTail stops the periodic re-query; loaded events remain.
func (a *App) DisableLiveTail() {
	a.session.DisableTail()
}

// -- Export --

// ExportCSV writes the filtered events to a CSV file chosen by the
// user. Runs off the UI thread; completion and errors arrive on the
// export:status event.
func (a *App) ExportCSV() error {
	return a.exportWithDialog("export.csv", "CSV Files (*.csv)", "*.csv", export.WriteCSV)
}

// ExportJSON writes the filtered events to a JSON file chosen by the
// user.
func (a *App) ExportJSON() error {
	return a.exportWithDialog("export.json", "JSON Files (*.json)", "*.json", export.WriteJSON)
}

func (a *App) exportWithDialog(defaultName, filterName, pattern string,
	write func(string, []*model.EventRecord) error) error {

	savePath, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export Filtered Events",
		DefaultFilename: defaultName,
		Filters: []runtime.FileFilter{
			{DisplayName: filterName, Pattern: pattern},
		},
	})
	if err != nil {
		return err
	}
	if savePath == "" {
		return nil // user cancelled
	}

	records := a.session.FilteredRecords()
	go func() {
		runtime.EventsEmit(a.ctx, "export:status",
			fmt.Sprintf("Writing %d events...", len(records)))
		if err := write(savePath, records); err != nil {
			level.Warn(a.logger).Log("msg", "export failed", "path", savePath, "err", err)
			runtime.EventsEmit(a.ctx, "export:error", err.Error())
			return
		}
		level.Info(a.logger).Log("msg", "export complete", "path", savePath, "events", len(records))
		runtime.EventsEmit(a.ctx, "export:status",
			fmt.Sprintf("Exported %d events to %s", len(records), savePath))
	}()
	return nil
}

// ExportArchive writes the filtered events to an archive database.
// driver is "sqlite" or "postgres"; target is the file path (chosen via
// dialog when empty) or connection string.
func (a *App) ExportArchive(driver, target string) error {
	if driver == "sqlite" && target == "" {
		path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
			Title:           "Export to Archive Database",
			DefaultFilename: "events.db",
			Filters: []runtime.FileFilter{
				{DisplayName: "SQLite Database (*.db)", Pattern: "*.db"},
			},
		})
		if err != nil {
			return err
		}
		if path == "" {
			return nil
		}
		target = path
	}
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("no archive target given")
	}

	records := a.session.FilteredRecords()
	go func() {
		archive, err := store.CreateArchive(driver, target)
		if err != nil {
			level.Warn(a.logger).Log("msg", "archive open failed", "err", err)
			runtime.EventsEmit(a.ctx, "export:error", err.Error())
			return
		}
		defer archive.Close()

		n, err := archive.InsertRecords(records, func(count int) {
			runtime.EventsEmit(a.ctx, "export:status",
				fmt.Sprintf("Archived %d of %d events...", count, len(records)))
		})
		if err != nil {
			level.Warn(a.logger).Log("msg", "archive export failed", "err", err)
			runtime.EventsEmit(a.ctx, "export:error", err.Error())
			return
		}
		runtime.EventsEmit(a.ctx, "export:status",
			fmt.Sprintf("Archived %d events", n))
	}()
	return nil
}

// -- Filter Presets --

// SavePreset stores the given filter input under a name.
func (a *App) SavePreset(name string, in filter.Input) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("preset name is empty")
	}
	if _, err := filter.Compile(in); err != nil {
		return err
	}
	return a.settings.SavePreset(filter.NewPreset(name, in))
}

// LoadPreset fetches a stored preset by name.
func (a *App) LoadPreset(name string) (filter.Preset, error) {
	return a.settings.LoadPreset(name)
}

// DeletePreset removes a stored preset.
func (a *App) DeletePreset(name string) error {
	return a.settings.DeletePreset(name)
}

// ListPresets returns all stored preset names.
func (a *App) ListPresets() ([]string, error) {
	return a.settings.ListPresets()
}

// -- Preferences --

// Preferences is the persisted UI state handed to the frontend.
type Preferences struct {
	Theme           string   `json:"theme"`
	SelectedSources []string `json:"selected_sources"`
	MaxEvents       int      `json:"max_events"`
	Columns         []string `json:"columns"`
}

// GetPreferences returns the persisted preferences.
func (a *App) GetPreferences() Preferences {
	return Preferences{
		Theme:           a.prefs.Theme(),
		SelectedSources: a.prefs.SelectedSources(),
		MaxEvents:       a.prefs.MaxEvents(),
		Columns:         a.prefs.Columns(),
	}
}

// SetPreferences stores and saves the preferences.
func (a *App) SetPreferences(p Preferences) error {
	a.prefs.SetTheme(p.Theme)
	a.prefs.SetSelectedSources(p.SelectedSources)
	a.prefs.SetMaxEvents(p.MaxEvents)
	a.prefs.SetColumns(p.Columns)
	return a.prefs.Save()
}

// GetVersion returns the application version string.
func (a *App) GetVersion() string {
	return Version
}
