package library

import (
	"context"
	"errors"
	"fmt"

	"media-gallery/internal/store"
)

// Keyword maps a search term to a list of library folders.
type Keyword struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Paths []string `json:"paths"`
}

// AddKeyword creates a keyword, or changes the type of an existing one.
func (l *Library) AddKeyword(ctx context.Context, name, typ string) error {
	if name == "" {
		return fmt.Errorf("%w: keyword name is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kw, err := l.keyword(ctx, name)
	if errors.Is(err, ErrNotFound) {
		kw = &Keyword{Name: name, Paths: []string{}}
	} else if err != nil {
		return err
	}
	kw.Type = typ
	return l.setJSON(ctx, nsKeywords, name, kw)
}

// RemoveKeyword deletes a keyword and its paths.
func (l *Library) RemoveKeyword(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, nsKeywords, name)
}

// AddKeywordPath appends path to a keyword. Unknown keywords and paths
// already present are left unchanged.
func (l *Library) AddKeywordPath(ctx context.Context, name, path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kw, err := l.keyword(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if contains(kw.Paths, path) {
		return nil
	}
	kw.Paths = append(kw.Paths, path)
	return l.setJSON(ctx, nsKeywords, name, kw)
}

// RemoveKeywordPath removes path from a keyword.
func (l *Library) RemoveKeywordPath(ctx context.Context, name, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kw, err := l.keyword(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	kw.Paths = without(kw.Paths, path)
	return l.setJSON(ctx, nsKeywords, name, kw)
}

// Keyword returns a single keyword or ErrNotFound.
func (l *Library) Keyword(ctx context.Context, name string) (*Keyword, error) {
	return l.keyword(ctx, name)
}

func (l *Library) keyword(ctx context.Context, name string) (*Keyword, error) {
	var kw Keyword
	err := l.getJSON(ctx, nsKeywords, name, &kw)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: keyword %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if kw.Paths == nil {
		kw.Paths = []string{}
	}
	return &kw, nil
}

// Keywords lists all keywords ordered by name.
func (l *Library) Keywords(ctx context.Context) ([]Keyword, error) {
	names, err := l.store.Keys(ctx, nsKeywords)
	if err != nil {
		return nil, err
	}

	keywords := make([]Keyword, 0, len(names))
	for _, name := range names {
		kw, err := l.keyword(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, *kw)
	}
	return keywords, nil
}
