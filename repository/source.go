package repository

import (
	"context"

	"tourbook/catalog"
)

type SectionLister interface {
	ListSections(ctx context.Context, page string) ([]catalog.Section, error)
}

// Source joins a package lister (usually the cache) and a section lister
// into a catalog.Source.
type Source struct {
	Packages PackageLister
	Sections SectionLister
}

func (s Source) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	return s.Packages.ListPackages(ctx)
}

func (s Source) ListSections(ctx context.Context, page string) ([]catalog.Section, error) {
	return s.Sections.ListSections(ctx, page)
}
