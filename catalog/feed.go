package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// refreshTimeout bounds a re-fetch triggered by a change notification.
const refreshTimeout = 15 * time.Second

// PackageFeed is a read-through copy of the package catalog. A failed
// fetch leaves it empty with the error recorded; the next read tries again.
type PackageFeed struct {
	src Source
	log *slog.Logger

	mu       sync.RWMutex
	packages []Package
	err      error
	loaded   bool
}

func NewPackageFeed(src Source, log *slog.Logger) *PackageFeed {
	if log == nil {
		log = slog.Default()
	}
	return &PackageFeed{src: src, log: log.With("feed", "packages")}
}

func (f *PackageFeed) Refresh(ctx context.Context) error {
	packages, err := f.src.ListPackages(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true
	if err != nil {
		f.packages, f.err = nil, fmt.Errorf("list packages: %w", err)
		return f.err
	}
	f.packages, f.err = packages, nil
	return nil
}

func (f *PackageFeed) ensure(ctx context.Context) {
	f.mu.RLock()
	fresh := f.loaded && f.err == nil
	f.mu.RUnlock()
	if !fresh {
		_ = f.Refresh(ctx)
	}
}

// Packages returns the catalog in lang together with the error of the last
// fetch. On error the list is empty.
func (f *PackageFeed) Packages(ctx context.Context, lang string, activeOnly bool) ([]LocalizedPackage, error) {
	f.ensure(ctx)

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]LocalizedPackage, 0, len(f.packages))
	for _, p := range f.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, Localize(p, lang))
	}
	return out, f.err
}

// Get returns the raw record with the given id.
func (f *PackageFeed) Get(ctx context.Context, id string) (Package, error) {
	f.ensure(ctx)

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return Package{}, f.err
	}
	for _, p := range f.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return Package{}, ErrNotFound
}

func (f *PackageFeed) Package(ctx context.Context, id, lang string) (LocalizedPackage, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return LocalizedPackage{}, err
	}
	return Localize(p, lang), nil
}

// SectionFeed caches page sections per page.
type SectionFeed struct {
	src Source
	log *slog.Logger

	mu    sync.RWMutex
	pages map[string]pageState
}

type pageState struct {
	sections []Section
	err      error
}

func NewSectionFeed(src Source, log *slog.Logger) *SectionFeed {
	if log == nil {
		log = slog.Default()
	}
	return &SectionFeed{src: src, log: log.With("feed", "sections"), pages: make(map[string]pageState)}
}

func (f *SectionFeed) RefreshPage(ctx context.Context, page string) error {
	sections, err := f.src.ListSections(ctx, page)
	if err != nil {
		err = fmt.Errorf("list sections of %q: %w", page, err)
		sections = nil
	}

	f.mu.Lock()
	f.pages[page] = pageState{sections: sections, err: err}
	f.mu.Unlock()
	return err
}

// Refresh re-fetches every page read so far.
func (f *SectionFeed) Refresh(ctx context.Context) error {
	f.mu.RLock()
	pages := make([]string, 0, len(f.pages))
	for page := range f.pages {
		pages = append(pages, page)
	}
	f.mu.RUnlock()

	// each page keeps its own outcome
	var g errgroup.Group
	g.SetLimit(4)
	for _, page := range pages {
		page := page
		g.Go(func() error { return f.RefreshPage(ctx, page) })
	}
	return g.Wait()
}

// Sections returns the ordered sections of page in lang together with the
// error of the last fetch.
func (f *SectionFeed) Sections(ctx context.Context, page, lang string) ([]LocalizedSection, error) {
	f.mu.RLock()
	st, ok := f.pages[page]
	f.mu.RUnlock()

	if !ok || st.err != nil {
		_ = f.RefreshPage(ctx, page)
		f.mu.RLock()
		st = f.pages[page]
		f.mu.RUnlock()
	}
	return LocalizeSections(st.sections, lang), st.err
}

// Feeds bundles both feeds behind one optional change subscription.
type Feeds struct {
	Packages *PackageFeed
	Sections *SectionFeed
	log      *slog.Logger

	mu  sync.Mutex
	sub Subscription
}

func NewFeeds(src Source, log *slog.Logger) *Feeds {
	if log == nil {
		log = slog.Default()
	}
	return &Feeds{
		Packages: NewPackageFeed(src, log),
		Sections: NewSectionFeed(src, log),
		log:      log,
	}
}

// Refresh re-fetches packages and every known page concurrently.
func (f *Feeds) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return f.Packages.Refresh(ctx) })
	g.Go(func() error { return f.Sections.Refresh(ctx) })
	return g.Wait()
}

// Watch subscribes to n and re-runs Refresh on every change signal. ctx
// scopes the re-fetches, not the subscription; call Close to stop.
func (f *Feeds) Watch(ctx context.Context, n Notifier) error {
	sub, err := n.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to catalog changes: %w", err)
	}

	sub.OnChange(func() {
		rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		if err := f.Refresh(rctx); err != nil {
			f.log.Warn("catalog refresh after change failed", slog.Any("err", err))
			return
		}
		f.log.Debug("catalog refreshed after change")
	})

	f.mu.Lock()
	prev := f.sub
	f.sub = sub
	f.mu.Unlock()

	if prev != nil {
		_ = prev.Unsubscribe()
	}
	return nil
}

func (f *Feeds) Close() error {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}
