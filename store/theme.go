package store

import (
	"context"

	"github.com/minios-linux/polyglot/dictionary"
	"github.com/minios-linux/polyglot/settingsblock"
)

// ThemeBaseStale reports whether the stored base dictionary of theme is
// missing or was generated from a different stylesheet.
func (s *Store) ThemeBaseStale(ctx context.Context, theme, css string) bool {
	doc := s.Load(ctx, Themes, theme, s.themeBase)
	if doc == nil {
		return true
	}
	return doc.Meta.SourceHash != settingsblock.Fingerprint(css)
}

// RefreshThemeBase regenerates the base dictionary of theme from the
// @settings blocks in css. Nothing is written when the stored dictionary
// was generated from identical css or when css yields no strings. It
// reports whether a new dictionary was written.
func (s *Store) RefreshThemeBase(ctx context.Context, theme, css string) (bool, error) {
	if !s.ThemeBaseStale(ctx, theme, css) {
		return false, nil
	}

	res := settingsblock.Extract(css, s.logger)
	if len(res.Strings) == 0 {
		s.logger.Debug("no @settings strings found", "theme", theme)
		return false, nil
	}

	doc := dictionary.New(dictionary.Meta{
		ThemeName:  theme,
		Locale:     s.themeBase,
		SourceHash: res.Hash,
	}, res.Strings)
	if err := s.Save(ctx, Themes, theme, s.themeBase, doc); err != nil {
		return false, err
	}
	s.logger.Info("theme base dictionary regenerated", "theme", theme, "strings", len(res.Keys()))
	return true, nil
}
