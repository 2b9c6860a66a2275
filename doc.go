// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdfwrap provides engine-independent access to the object graph
// of PDF files.
//
// # Overview
//
// A PDF document is a complex data format built on a fairly simple
// structure: a graph of Objects, each of which has one of the following
// Types:
//
//	TypeNull, for the null object.
//	TypeBoolean, for a boolean value.
//	TypeInteger, for an integer.
//	TypeFixed, for a real number.
//	TypeName, for a name constant (as in /Helvetica).
//	TypeString, for a string constant.
//	TypeArray, for an array of objects.
//	TypeDict, for a dictionary of name-object pairs.
//	TypeStream, for an opaque data stream and associated header dictionary.
//
// Objects that are written once in the file and referenced from elsewhere
// are indirect and carry an ID. Indirect objects are cached by their
// Document, so the same ID always yields the same Object and a traversal can
// detect cycles by ID.
//
// The accessors are type-checked rather than coercing: Get reports false
// when the child asked for is absent or has a different type, and does not
// touch its destination. Names are interned (see Intern), so dictionary keys
// compare with ==.
//
// A binding implements Document and Object over a concrete PDF engine and
// registers a Prototype; Open clones it for each file. Importing
// github.com/ScriptRock/pdfwrap/cosdoc registers the built-in engine:
//
//	import _ "github.com/ScriptRock/pdfwrap/cosdoc"
//
//	doc, err := pdfwrap.Open("file.pdf")
//	if err != nil {
//		return err
//	}
//	defer doc.Close()
//	catalog, _ := doc.Catalog()
//	pages, _ := pdfwrap.Lookup[pdfwrap.Object](catalog, pdfwrap.Key("Pages"))
package pdfwrap
