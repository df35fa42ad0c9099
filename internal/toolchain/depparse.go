package toolchain

import (
	"strings"
	"unicode"
)

// ParseMakeDepfile parses the Makefile-rule dependency output GCC/Clang
// write with -MMD -MF<file>: "target: dep dep \\\n  dep ...". Backslash
// line continuations are joined, the "target:" prefix is dropped, and the
// remaining whitespace-separated tokens are returned deduplicated in
// first-seen order. Grounded on the equivalent Makefile-rule parser in
// tctromp-tinygo/builder/cc.go (readDepFile/parseDepFile), adapted from
// Clang's single-line "deps:" variant to the standard multi-line rule
// format.
func ParseMakeDepfile(data []byte) []string {
	s := string(data)
	if strings.TrimSpace(s) == "" {
		return nil
	}

	// Join backslash-newline continuations into one logical line.
	s = strings.ReplaceAll(s, "\\\r\n", " ")
	s = strings.ReplaceAll(s, "\\\n", " ")

	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return nil
	}
	// Protect escaped spaces ("\ ") so they survive whitespace splitting.
	rest := strings.ReplaceAll(s[colon+1:], `\ `, "\x00")

	var deps []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(rest) {
		tok = unescapeMakeToken(strings.ReplaceAll(tok, "\x00", `\ `))
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		deps = append(deps, tok)
	}
	return deps
}

func unescapeMakeToken(tok string) string {
	tok = strings.ReplaceAll(tok, `\ `, " ")
	tok = strings.ReplaceAll(tok, `\:`, ":")
	return tok
}

const showIncludesMarker = "Note: including file:"

// ParseShowIncludes scans MSVC's /showIncludes stdout line-by-line for the
// "Note: including file:" marker (forced to English by /English-, per
// spec) and returns the included paths, deduplicated in first-seen order.
func ParseShowIncludes(stdout []byte) []string {
	var deps []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimRight(line, "\r")
		idx := strings.Index(line, showIncludesMarker)
		if idx < 0 {
			continue
		}
		path := strings.TrimSpace(line[idx+len(showIncludesMarker):])
		path = strings.TrimFunc(path, unicode.IsSpace)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		deps = append(deps, path)
	}
	return deps
}

// FilterNonSourceLine reports whether an MSVC stdout line is purely a
// /showIncludes note (and should not be echoed to the user as compiler
// diagnostic output).
func FilterNonSourceLine(line string) bool {
	return strings.Contains(line, showIncludesMarker)
}
