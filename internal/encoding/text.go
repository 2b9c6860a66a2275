// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encoding decodes PDF text strings (PDF 32000-1 §7.9.2.2).
package encoding

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NoRune marks a byte with no PDFDocEncoding mapping.
const NoRune = '\ufffd'

// IsPDFDocEncoded reports whether every byte of s has a PDFDocEncoding mapping.
func IsPDFDocEncoded(s string) bool {
	if IsUTF16(s) || IsUTF8(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if pdfDocEncoding[s[i]] == NoRune {
			return false
		}
	}
	return true
}

// PDFDocDecode converts PDFDocEncoded bytes to UTF-8. Unmapped bytes become NoRune.
func PDFDocDecode(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || pdfDocEncoding[s[i]] != rune(s[i]) {
			goto Decode
		}
	}
	return s

Decode:
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b.WriteRune(pdfDocEncoding[s[i]])
	}
	return b.String()
}

// IsUTF16 reports whether s starts with the big-endian byte order mark and
// has an even length.
func IsUTF16(s string) bool {
	return len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff && len(s)%2 == 0
}

// IsUTF8 reports whether s starts with the UTF-8 byte order mark (PDF 2.0).
func IsUTF8(s string) bool {
	return strings.HasPrefix(s, "\xef\xbb\xbf") && utf8.ValidString(s[3:])
}

// UTF16Decode decodes big-endian UTF-16 without a byte order mark and
// normalizes the result to NFKC.
func UTF16Decode(s string) string {
	u := make([]uint16, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		u = append(u, uint16(s[i])<<8|uint16(s[i+1]))
	}

	return norm.NFKC.String(string(utf16.Decode(u)))
}

// Decode interprets raw as a PDF text string: UTF-16BE or UTF-8 when a byte
// order mark is present, PDFDocEncoding otherwise. Bytes that fit none of
// these are returned unchanged.
func Decode(raw string) string {
	switch {
	case IsUTF16(raw):
		return UTF16Decode(raw[2:])
	case IsUTF8(raw):
		return raw[3:]
	case IsPDFDocEncoded(raw):
		return PDFDocDecode(raw)
	}
	return raw
}
