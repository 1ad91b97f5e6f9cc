package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonicalize parses value as a BCP 47 tag and returns its canonical form.
// Deprecated aliases are rewritten ("iw" becomes "he") and casing is fixed
// ("EN-us" becomes "en-US"). Whitespace-only input is rejected.
func Canonicalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("language tag is empty")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse language tag %q: %w", trimmed, err)
	}
	return tag.String(), nil
}

// ISO639_1 returns the two-letter base code for a tag, which is what
// Jellyfin expects in PreferredMetadataLanguage. Unparseable or exotic
// tags fall back to the trimmed input.
func ISO639_1(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return strings.ToLower(trimmed)
	}
	return base.String()
}

// Region returns the upper-case region code for a tag when one can be
// inferred ("en-US" yields "US", bare "de" yields "DE"). It returns empty
// when no region is known.
func Region(value string) string {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	region, confidence := tag.Region()
	if confidence == language.No || !region.IsCountry() {
		return ""
	}
	return region.String()
}

// DisplayName returns the English name for a language tag, for table output.
// Unrecognized input is echoed back upper-cased.
func DisplayName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(trimmed)
	}
	return name
}
