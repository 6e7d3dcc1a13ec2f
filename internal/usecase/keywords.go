package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// DefaultNativeLanguage is the translator code of the native keyword terms.
const DefaultNativeLanguage = "he"

// KeywordResolver turns raw keyword rows into complete bilingual pairs.
type KeywordResolver struct {
	translator ports.Translator
	native     string
	logger     *slog.Logger
}

// NewKeywordResolver wires an optional translator used to fill a missing term.
func NewKeywordResolver(translator ports.Translator, nativeLanguage string, logger *slog.Logger) *KeywordResolver {
	if nativeLanguage == "" {
		nativeLanguage = DefaultNativeLanguage
	}
	return &KeywordResolver{translator: translator, native: nativeLanguage, logger: logger}
}

// Resolve classifies each row's values by script, translates the missing side and
// returns the pairs in row order plus the rows whose stored form changed.
func (k *KeywordResolver) Resolve(ctx context.Context, rows []domain.KeywordRow) ([]domain.KeywordPair, []domain.KeywordRow) {
	var (
		pairs   []domain.KeywordPair
		changed []domain.KeywordRow
	)

	for _, row := range rows {
		a, b := strings.TrimSpace(row.A), strings.TrimSpace(row.B)
		if a == "" && b == "" {
			continue
		}

		var pair domain.KeywordPair
		for _, v := range []string{a, b} {
			switch {
			case v == "":
			case isNative(v):
				pair.Native = v
			default:
				pair.English = v
			}
		}

		pair = k.complete(ctx, pair)
		pairs = append(pairs, pair)

		if row.A != pair.Native || row.B != pair.English {
			changed = append(changed, domain.KeywordRow{Row: row.Row, A: pair.Native, B: pair.English})
		}
	}
	return pairs, changed
}

func (k *KeywordResolver) complete(ctx context.Context, pair domain.KeywordPair) domain.KeywordPair {
	if k.translator == nil {
		return pair
	}

	switch {
	case pair.Native != "" && pair.English == "":
		english, err := k.translator.Translate(ctx, pair.Native, "auto", "en")
		if err != nil {
			k.warn("translate keyword", "keyword", pair.Native, "error", err)
			return pair
		}
		pair.English = strings.TrimSpace(english)
	case pair.English != "" && pair.Native == "":
		native, err := k.translator.Translate(ctx, pair.English, "auto", k.native)
		if err != nil {
			k.warn("translate keyword", "keyword", pair.English, "error", err)
			return pair
		}
		native = strings.TrimSpace(native)
		if native == "" || strings.EqualFold(native, pair.English) {
			native = pair.English
		}
		pair.Native = native
	}
	return pair
}

func (k *KeywordResolver) warn(msg string, args ...any) {
	if k.logger != nil {
		k.logger.Warn(msg, args...)
	}
}

// isNative reports whether text contains a Hebrew letter.
func isNative(text string) bool {
	for _, r := range text {
		if r >= 0x0590 && r <= 0x05FF {
			return true
		}
	}
	return false
}

// isForeign reports whether text has Latin letters and no native ones.
func isForeign(text string) bool {
	if isNative(text) {
		return false
	}
	for _, r := range text {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
