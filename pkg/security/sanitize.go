// Package security cleans free text typed by users before it is stored and
// rendered back in the dashboard.
package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	htmlTagPattern     = regexp.MustCompile(`</?[a-zA-Z!][^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// StripHTMLTags removes HTML comments and tags, keeping their text content
func StripHTMLTags(s string) string {
	s = htmlCommentPattern.ReplaceAllString(s, "")
	return htmlTagPattern.ReplaceAllString(s, "")
}

// NormalizeWhitespace collapses every whitespace run into one space and trims
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// TruncateString cuts s to at most maxLength runes
func TruncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	return string([]rune(s)[:maxLength])
}

// removeControlCharacters drops control characters other than newline and tab
func removeControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeText cleans multi line text such as a note body. Line breaks are
// kept. A maxLength of zero or less means no limit.
func SanitizeText(s string, maxLength int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = removeControlCharacters(StripHTMLTags(s))
	s = strings.TrimSpace(s)
	if maxLength > 0 {
		s = strings.TrimSpace(TruncateString(s, maxLength))
	}
	return s
}

// SanitizeLine cleans single line text such as a name or a short remark
func SanitizeLine(s string, maxLength int) string {
	return SanitizeText(NormalizeWhitespace(StripHTMLTags(s)), maxLength)
}
