package extractor

import (
	"path/filepath"
	"regexp"
	"strings"
)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// MetadataFromFilename derives document metadata from the file name alone.
// It is the documented fallback when the PDF carries no Info dictionary.
// Recognized patterns for academic papers:
//
//	Author_Title.pdf
//	Author, Title.pdf
//
// plus a four-digit year anywhere in the name. The whole base name becomes
// the title when no pattern matches; Author stays empty ("Unknown" at
// citation time).
func MetadataFromFilename(path string) Document {
	base := filepath.Base(path)
	name := base
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}

	doc := Document{
		DocID:      base,
		Title:      cleanSpaces(strings.ReplaceAll(name, "_", " ")),
		SourcePath: path,
	}

	if m := yearRe.FindString(name); m != "" {
		doc.Year = m
	}

	switch {
	case strings.Contains(name, "_"):
		parts := strings.SplitN(name, "_", 2)
		author := cleanSpaces(parts[0])
		// A plausible author segment is at most a few words.
		if author != "" && len(strings.Fields(author)) <= 3 {
			doc.Author = author
			doc.Title = cleanSpaces(strings.ReplaceAll(parts[1], "_", " "))
		}
	case strings.Contains(name, ","):
		parts := strings.SplitN(name, ",", 2)
		author := cleanSpaces(parts[0])
		title := cleanSpaces(parts[1])
		if author != "" && title != "" {
			doc.Author = author
			doc.Title = title
		}
	}

	if doc.Title == "" {
		doc.Title = name
	}
	return doc
}

func cleanSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
