// Package testsupport provides shared fixtures: a scripted automation
// driver and a ready-to-use configuration rooted in a test temp dir.
package testsupport

import (
	"context"
	"errors"
	"sync"

	"ledgersync/internal/erp"
)

// FakeDriver is a scripted erp.Driver. Zero value behaves like an empty but
// responsive ERP session; fields script specific behaviors per test.
type FakeDriver struct {
	mu sync.Mutex

	// Columns serves ReadColumn on the unreflected view, header first.
	Columns map[string][]string
	// ReflectedColumns serves ReadColumn while the reflected tab is active.
	ReflectedColumns map[string][]string
	// GridText overrides the post-paste grid text; when empty the last
	// clipboard payload is used, which makes paste verification succeed.
	GridText string

	DialogText    string
	DialogPresent bool

	NavigateErr  error
	ClickErr     error
	ClipboardErr error

	Navigations []string
	Clicks      []string
	Keys        []string
	Typed       []string
	Screenshots []string
	Clipboard   string
	Dismissals  int
	Closed      bool

	reflectedActive bool
}

var _ erp.Driver = (*FakeDriver)(nil)

func (f *FakeDriver) Navigate(_ context.Context, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, target)
	return f.NavigateErr
}

func (f *FakeDriver) ReadColumn(_ context.Context, columnID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	source := f.Columns
	if f.reflectedActive && f.ReflectedColumns != nil {
		source = f.ReflectedColumns
	}
	cells, ok := source[columnID]
	if !ok {
		return []string{"header"}, nil
	}
	return append([]string(nil), cells...), nil
}

func (f *FakeDriver) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clicks = append(f.Clicks, selector)
	if f.ClickErr != nil {
		return f.ClickErr
	}
	switch selector {
	case erp.SelectorReflectedTab:
		f.reflectedActive = true
	case erp.SelectorUnreflectedTab:
		f.reflectedActive = false
	}
	return nil
}

func (f *FakeDriver) WriteClipboard(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClipboardErr != nil {
		return f.ClipboardErr
	}
	f.Clipboard = text
	return nil
}

func (f *FakeDriver) PressKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Keys = append(f.Keys, key)
	return nil
}

func (f *FakeDriver) TypeText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Typed = append(f.Typed, text)
	return nil
}

func (f *FakeDriver) ReadGridText(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GridText != "" {
		return f.GridText, nil
	}
	return f.Clipboard, nil
}

func (f *FakeDriver) ReadResultDialogText(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.DialogPresent {
		return "", false, nil
	}
	return f.DialogText, true, nil
}

func (f *FakeDriver) DismissDialog(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dismissals++
	return nil
}

func (f *FakeDriver) Screenshot(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Screenshots = append(f.Screenshots, path)
	return nil
}

func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// FakeSessionFactory hands out a fixed driver, or an error.
type FakeSessionFactory struct {
	Driver  *FakeDriver
	OpenErr error
	Opened  int
}

var _ erp.SessionFactory = (*FakeSessionFactory)(nil)

func (f *FakeSessionFactory) Open(context.Context) (erp.Driver, error) {
	f.Opened++
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	if f.Driver == nil {
		return nil, errors.New("no driver scripted")
	}
	return f.Driver, nil
}
