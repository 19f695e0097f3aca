// Package citation maps retrieved chunks back to their source documents
// and renders APA 7th edition references and inline markers.
package citation

import (
	"fmt"
	"strings"
	"unicode"

	"citeseek/internal/store"
)

// Documented placeholders for missing metadata. A gap in a PDF's Info
// dictionary must never fail the whole response.
const (
	UnknownAuthor = "Unknown"
	NoDate        = "n.d."
)

// minor words stay lowercase in APA title case unless first or last.
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "for": true, "if": true, "in": true,
	"nor": true, "of": true, "on": true, "or": true, "so": true,
	"the": true, "to": true, "up": true, "yet": true,
}

// FormatReference renders the full APA-7 reference for a document:
//
//	Author, A. (Year). Title. Retrieved from source.pdf.
func FormatReference(d store.Document) string {
	authors := formatAuthors(splitAuthors(d.Author))
	year := d.Year
	if year == "" {
		year = NoDate
	}
	title := TitleCase(d.Title)
	if title == "" {
		title = "Untitled Document"
	}

	ref := fmt.Sprintf("%s (%s). %s.", authors, year, title)
	if d.DocID != "" {
		ref += fmt.Sprintf(" Retrieved from %s.", d.DocID)
	}
	return ref
}

// FormatInline renders the in-text marker for a document: (Author, Year)
// using surnames only, with "et al." beyond two authors.
func FormatInline(d store.Document) string {
	names := splitAuthors(d.Author)
	year := d.Year
	if year == "" {
		year = NoDate
	}

	var who string
	switch len(names) {
	case 0:
		who = UnknownAuthor
	case 1:
		who = surname(names[0])
	case 2:
		who = surname(names[0]) + " & " + surname(names[1])
	default:
		who = surname(names[0]) + " et al."
	}
	return fmt.Sprintf("(%s, %s)", who, year)
}

// splitAuthors breaks a raw author string into individual names. Handles
// "A & B", "A and B", and semicolon-separated lists. A bare comma is NOT a
// separator because "Last, First" is a single name.
func splitAuthors(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, " and ", " & ")
	raw = strings.ReplaceAll(raw, ";", " & ")

	var names []string
	for _, part := range strings.Split(raw, "&") {
		if p := strings.Join(strings.Fields(part), " "); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// formatAuthors renders the reference-list author block: "Last, F." for one
// author, "Last, F., & Last, F." for two, commas plus ", & " beyond that.
func formatAuthors(names []string) string {
	if len(names) == 0 {
		return UnknownAuthor
	}

	formatted := make([]string, len(names))
	for i, n := range names {
		formatted[i] = normalizeAuthor(n)
	}

	switch len(formatted) {
	case 1:
		return formatted[0]
	case 2:
		return formatted[0] + ", & " + formatted[1]
	default:
		return strings.Join(formatted[:len(formatted)-1], ", ") + ", & " + formatted[len(formatted)-1]
	}
}

// normalizeAuthor converts a single name to "Last, F. M." form. Both
// "Last, First" and "First Last" inputs are accepted; a single bare word is
// kept as-is.
func normalizeAuthor(name string) string {
	var last, firsts string
	if i := strings.Index(name, ","); i >= 0 {
		last = strings.TrimSpace(name[:i])
		firsts = strings.TrimSpace(name[i+1:])
	} else {
		fields := strings.Fields(name)
		if len(fields) == 1 {
			return fields[0]
		}
		last = fields[len(fields)-1]
		firsts = strings.Join(fields[:len(fields)-1], " ")
	}
	if firsts == "" {
		return last
	}
	return last + ", " + initials(firsts)
}

// initials reduces given names to "F. M." form.
func initials(firsts string) string {
	var out []string
	for _, w := range strings.Fields(firsts) {
		r := []rune(w)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		out = append(out, string(unicode.ToUpper(r))+".")
	}
	return strings.Join(out, " ")
}

// surname returns the family name of a single author string.
func surname(name string) string {
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[len(fields)-1]
}

// TitleCase applies APA title case: every word capitalized except minor
// words, which stay lowercase unless first or last.
func TitleCase(title string) string {
	words := strings.Fields(title)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i != 0 && i != len(words)-1 && minorWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = capitalize(lower)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
