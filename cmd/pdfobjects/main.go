// Command pdfobjects prints the object tree of a PDF file, starting at the
// document catalog.
//
// Usage:
//
//	pdfobjects [-password pw] [-trailer] [-object id] [-v] filename [depth]
//
// depth is the number of container levels to expand; it defaults to 1.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/ScriptRock/pdfwrap"
	"github.com/ScriptRock/pdfwrap/cosdoc"
	"github.com/ScriptRock/pdfwrap/dump"
	"github.com/ScriptRock/pdfwrap/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = "Usage:  pdfobjects [flags] filename [depth]"

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfobjects", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	password := fs.String("password", "", "user password of an encrypted file")
	trailer := fs.Bool("trailer", false, "start at the trailer instead of the catalog")
	objectID := fs.Int64("object", 0, "start at the indirect object with this number")
	verbose := fs.Bool("v", false, "log engine diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	depth := 1
	if fs.NArg() == 2 {
		n, err := strconv.Atoi(fs.Arg(1))
		if err != nil || n < 0 {
			fmt.Fprintln(stderr, usage)
			return 1
		}
		depth = n
	}

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer logging.SetLogger(nil)
	}

	var (
		doc pdfwrap.Document
		err error
	)
	if *password != "" {
		doc, err = cosdoc.OpenFile(fs.Arg(0), cosdoc.WithPassword(*password))
	} else {
		doc, err = pdfwrap.Open(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error opening document: %v\n", err)
		return 1
	}
	defer doc.Close()

	var (
		root  pdfwrap.Object
		ok    bool
		title string
	)
	switch {
	case *objectID != 0:
		root, ok = doc.Object(pdfwrap.ID(*objectID))
		title = fmt.Sprintf("object %d", *objectID)
	case *trailer:
		root, ok = doc.Trailer()
		title = "trailer"
	default:
		root, ok = doc.Catalog()
		title = "catalog"
	}
	if !ok {
		fmt.Fprintf(stderr, "Error getting PDF %s\n", title)
		return 1
	}

	fmt.Fprintf(stdout, "Document %s:\n", title)
	if err := dump.Print(stdout, root, dump.Options{Depth: depth}); err != nil {
		fmt.Fprintf(stderr, "Error printing %s: %v\n", title, err)
		return 1
	}
	return 0
}
