package charset

import "slices"

// Category groups table entries by the reason they are considered suspicious.
type Category uint8

const (
	CategoryLatin1    Category = iota + 1 // C1/Latin-1 leftovers from mis-decoded cp1252
	CategorySpace                         // spaces, separators and zero-width characters
	CategoryBidi                          // bidirectional controls (Trojan Source)
	CategoryControl                       // C0 controls and DEL
	CategoryHomoglyph                     // punctuation that renders like ASCII
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryLatin1:
		return "latin1"
	case CategorySpace:
		return "space"
	case CategoryBidi:
		return "bidi"
	case CategoryControl:
		return "control"
	case CategoryHomoglyph:
		return "homoglyph"
	default:
		return "unknown"
	}
}

// Entry is a single row of the built-in table.
type Entry struct {
	Rune     rune
	Category Category
	Note     string
}

// table is the built-in denylist in its canonical order. Duplicates are
// tolerated here and dropped when the index is built.
var table = []Entry{
	{0x0082, CategoryLatin1, "break permitted here"},
	{0x0084, CategoryLatin1, "index"},
	{0x0085, CategoryLatin1, "next line"},
	{0x0088, CategoryLatin1, "character tabulation set"},
	{0x0091, CategoryLatin1, "private use one"},
	{0x0092, CategoryLatin1, "private use two"},
	{0x0093, CategoryLatin1, "set transmit state"},
	{0x0094, CategoryLatin1, "cancel character"},
	{0x0095, CategoryLatin1, "message waiting"},
	{0x0096, CategoryLatin1, "start of guarded area"},
	{0x0097, CategoryLatin1, "end of guarded area"},
	{0x0099, CategoryLatin1, "single graphic character introducer"},
	{0x00A0, CategoryLatin1, "no-break space"},
	{0x00A6, CategoryLatin1, "broken bar"},
	{0x00AB, CategoryLatin1, "left guillemet"},
	{0x00BB, CategoryLatin1, "right guillemet"},
	{0x00BC, CategoryLatin1, "vulgar fraction one quarter"},
	{0x00BD, CategoryLatin1, "vulgar fraction one half"},
	{0x00BE, CategoryLatin1, "vulgar fraction three quarters"},
	{0x00BF, CategoryLatin1, "inverted question mark"},
	{0x00A8, CategoryLatin1, "diaeresis"},
	{0x00B1, CategoryLatin1, "plus-minus sign"},

	{0x1680, CategorySpace, "ogham space mark"},
	{0x180E, CategorySpace, "mongolian vowel separator"},
	{0x2000, CategorySpace, "en quad"},
	{0x2001, CategorySpace, "em quad"},
	{0x2002, CategorySpace, "en space"},
	{0x2003, CategorySpace, "em space"},
	{0x2004, CategorySpace, "three-per-em space"},
	{0x2005, CategorySpace, "four-per-em space"},
	{0x2006, CategorySpace, "six-per-em space"},
	{0x2007, CategorySpace, "figure space"},
	{0x2008, CategorySpace, "punctuation space"},
	{0x2009, CategorySpace, "thin space"},
	{0x200A, CategorySpace, "hair space"},
	{0x200B, CategorySpace, "zero width space"},
	{0x200D, CategorySpace, "zero width joiner"},
	{0x2013, CategorySpace, "en dash"},
	{0x2014, CategorySpace, "em dash"},
	{0x2028, CategorySpace, "line separator"},
	{0x202F, CategorySpace, "narrow no-break space"},
	{0x205F, CategorySpace, "medium mathematical space"},
	{0x3000, CategorySpace, "ideographic space"},
	{0xFEFF, CategorySpace, "zero width no-break space (BOM)"},
	{0xFFFC, CategorySpace, "object replacement character"},

	{0x061C, CategoryBidi, "arabic letter mark"},
	{0x200E, CategoryBidi, "left-to-right mark"},
	{0x200F, CategoryBidi, "right-to-left mark"},
	{0x202A, CategoryBidi, "left-to-right embedding"},
	{0x202B, CategoryBidi, "right-to-left embedding"},
	{0x202C, CategoryBidi, "pop directional formatting"},
	{0x202D, CategoryBidi, "left-to-right override"},
	{0x202E, CategoryBidi, "right-to-left override"},
	{0x2066, CategoryBidi, "left-to-right isolate"},
	{0x2067, CategoryBidi, "right-to-left isolate"},
	{0x2068, CategoryBidi, "first strong isolate"},
	{0x2069, CategoryBidi, "pop directional isolate"},
	{0x200B, CategoryBidi, "zero width space"},
	// U+200C (ZWNJ) is not listed, Persian and Indic scripts need it.

	{0x0000, CategoryControl, "null"},
	{0x0001, CategoryControl, "start of heading"},
	{0x0002, CategoryControl, "start of text"},
	{0x0003, CategoryControl, "end of text"},
	{0x0004, CategoryControl, "end of transmission"},
	{0x0005, CategoryControl, "enquiry"},
	{0x0006, CategoryControl, "acknowledge"},
	{0x0007, CategoryControl, "bell"},
	{0x0008, CategoryControl, "backspace"},
	{0x000B, CategoryControl, "vertical tab"},
	{0x000C, CategoryControl, "form feed"},
	{0x000E, CategoryControl, "shift out"},
	{0x000F, CategoryControl, "shift in"},
	{0x0010, CategoryControl, "data link escape"},
	{0x0011, CategoryControl, "device control one"},
	{0x0012, CategoryControl, "device control two"},
	{0x0013, CategoryControl, "device control three"},
	{0x0014, CategoryControl, "device control four"},
	{0x0015, CategoryControl, "negative acknowledge"},
	{0x0016, CategoryControl, "synchronous idle"},
	{0x0017, CategoryControl, "end of transmission block"},
	{0x0018, CategoryControl, "cancel"},
	{0x0019, CategoryControl, "end of medium"},
	{0x001A, CategoryControl, "substitute"},
	{0x001B, CategoryControl, "escape"},
	{0x001C, CategoryControl, "file separator"},
	{0x001D, CategoryControl, "group separator"},
	{0x001E, CategoryControl, "record separator"},
	{0x001F, CategoryControl, "unit separator"},
	{0x007F, CategoryControl, "delete"},

	{0x037E, CategoryHomoglyph, "greek question mark, looks like ;"},
	{0x00B8, CategoryHomoglyph, "cedilla, looks like ,"},
	{0x01C0, CategoryHomoglyph, "latin letter dental click, looks like |"},
	{0x2223, CategoryHomoglyph, "divides, looks like |"},
	{0x00AD, CategoryHomoglyph, "soft hyphen"},
}

var (
	ordered []rune
	entries []Entry
	index   map[rune]Entry
)

func init() {
	index = make(map[rune]Entry, len(table))
	for _, e := range table {
		if _, dup := index[e.Rune]; dup {
			continue
		}
		index[e.Rune] = e
		ordered = append(ordered, e.Rune)
		entries = append(entries, e)
	}
}

// Default returns the built-in bad characters in table order without
// duplicates. The caller owns the returned slice.
func Default() []rune {
	return slices.Clone(ordered)
}

// Entries returns the de-duplicated table rows in table order.
func Entries() []Entry {
	return slices.Clone(entries)
}

// Lookup reports the table row for r.
func Lookup(r rune) (Entry, bool) {
	e, ok := index[r]
	return e, ok
}

// Contains reports whether r is in the built-in table.
func Contains(r rune) bool {
	_, ok := index[r]
	return ok
}

// Len is the number of distinct runes in the table.
func Len() int {
	return len(ordered)
}
