// seehuhn.de/go/printer - convert documents to printer raster streams
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Ipptransform converts a PDF or image file into a printer-ready byte
// stream: PWG raster, Apple raster, or HP PCL.
//
// The command line and environment follow the transform interface of
// IPP print servers: job options arrive as -o arguments or as IPP_*
// environment variables, printer capabilities as -r/-s/-t flags or as
// IPP_PWG_RASTER_DOCUMENT_* variables, and accounting values are
// reported on stderr as "ATTR:" lines.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/term"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/printer"
	"seehuhn.de/go/printer/pagesource"
)

var (
	outputFile = flag.String("f", "", "output `filename` (default is stdout)")
	inputType  = flag.String("i", "", "input MIME `type` (default is $CONTENT_TYPE)")
	outputType = flag.String("m", "", "output MIME `type` (default is $OUTPUT_TYPE)")
	passwdArg  = flag.String("p", "", "PDF password")
	resArg     = flag.String("r", "", "supported `resolutions`, e.g. \"300dpi,600dpi\"")
	backArg    = flag.String("s", "", "back side `transform`: normal, flipped, rotated or manual-tumble")
	typesArg   = flag.String("t", "", "supported raster `types`, e.g. \"sgray_8,srgb_8\"")
	gzipArg    = flag.Bool("z", false, "gzip the output")
)

func main() {
	var opts optionList
	var verbose verbosity
	flag.Var(&opts, "o", "job `options` as \"name=value ...\" pairs")
	flag.Var(&verbose, "v", "more verbose logging (repeat for debug output)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	err := run(flag.Arg(0), opts, int(verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ipptransform [options] [filename]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Input formats: application/pdf, image/jpeg, image/png")
	fmt.Fprintln(os.Stderr, "Output formats: image/pwg-raster, image/urf, application/vnd.hp-pcl")
	fmt.Fprintln(os.Stderr, "Raster types: "+strings.Join(printer.SupportedTypes(), ", "))
}

func run(fname string, optArgs optionList, verbose int) error {
	log := newLogger(verbose)

	contentType := *inputType
	if contentType == "" {
		contentType = os.Getenv("CONTENT_TYPE")
	}
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(fname)) {
		case ".pdf":
			contentType = "application/pdf"
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		}
	}
	if contentType == "" {
		return errors.New("unknown input format, use the -i option")
	}

	mimeType := *outputType
	if mimeType == "" {
		mimeType = os.Getenv("OUTPUT_TYPE")
	}
	if mimeType == "" {
		return errors.New("unknown output format, use the -m option")
	}
	format, err := printer.ParseFormat(mimeType)
	if err != nil {
		return err
	}

	caps := printer.DefaultCapabilities(format)
	if s := flagOrEnv(*resArg, "IPP_PWG_RASTER_DOCUMENT_RESOLUTION_SUPPORTED"); s != "" {
		caps.Resolutions, err = printer.ParseResolutions(s)
		if err != nil {
			return err
		}
	}
	if s := flagOrEnv(*typesArg, "IPP_PWG_RASTER_DOCUMENT_TYPE_SUPPORTED"); s != "" {
		caps.Types = strings.Split(s, ",")
	}
	if s := flagOrEnv(*backArg, "IPP_PWG_RASTER_DOCUMENT_SHEET_BACK"); s != "" {
		caps.SheetBack = s
	}

	opt := printer.Options{}
	for _, s := range optArgs {
		opt = printer.ParseOptions(s, opt)
	}
	opt = printer.OptionsFromEnv(os.Environ(), opt)

	// Without a filename the document is read from stdin.  The PDF
	// reader needs random access, so the data goes to a scratch file.
	if fname == "" {
		tmp, err := os.CreateTemp("", "ipptransform-")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())
		_, err = io.Copy(tmp, os.Stdin)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fname = tmp.Name()
	}

	var src printer.PageSource
	doc := printer.DocInfo{NumPages: 1}
	switch contentType {
	case "application/pdf":
		ropt := &pdf.ReaderOptions{
			ReadPassword: readPassword,
		}
		r, err := pdf.Open(fname, ropt)
		if err != nil {
			return err
		}
		defer r.Close()
		d, err := pagesource.NewDocument(r)
		if err != nil {
			return err
		}
		src = d
		doc.NumPages = d.NumPages()
		doc.Color = true
	case "image/jpeg", "image/png":
		img, err := pagesource.OpenImage(fname)
		if err != nil {
			return err
		}
		src = img
		doc.Color = img.Color()
		doc.Image = true
	default:
		return fmt.Errorf("unsupported input format %q", contentType)
	}

	setup, err := printer.Negotiate(opt, caps, doc, log)
	if err != nil {
		return err
	}
	if v := os.Getenv("IPPTRANSFORM_MAX_RASTER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			setup.MaxRaster = n
		}
	}

	// Job accounting for the server, written before the conversion
	// starts.  The pad page of odd duplex copies is not an impression.
	pages := setup.Pages
	if setup.Pad {
		pages--
	}
	fmt.Fprintf(os.Stderr, "ATTR: job-impressions=%d\n", pages)
	fmt.Fprintf(os.Stderr, "ATTR: job-pages=%d\n", pages)
	if setup.Duplex {
		fmt.Fprintf(os.Stderr, "ATTR: job-media-sheets=%d\n", (pages+1)/2)
	} else {
		fmt.Fprintf(os.Stderr, "ATTR: job-media-sheets=%d\n", pages)
	}

	fd := os.Stdout
	if *outputFile != "" {
		fd, err = os.Create(*outputFile)
		if err != nil {
			return err
		}
	}
	w := io.Writer(fd)
	var zw *gzip.Writer
	if *gzipArg {
		zw = gzip.NewWriter(fd)
		w = zw
	}

	sum, err := transform(w, setup, src, log)

	if zw != nil {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}
	if fd != os.Stdout {
		if cerr := fd.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "ATTR: job-impressions-completed=%d\n", sum.Impressions)
	fmt.Fprintf(os.Stderr, "ATTR: job-media-sheets-completed=%d\n", sum.Sheets)
	return nil
}

func transform(w io.Writer, setup *printer.Setup, src printer.PageSource, log *slog.Logger) (*printer.Summary, error) {
	backend, err := printer.NewBackend(w, setup)
	if err != nil {
		return nil, err
	}
	job := &printer.Job{Setup: setup, Log: log}
	return job.Run(src, backend)
}

// newLogger builds the stderr logger.  The base level comes from the
// SERVER_LOGLEVEL variable, each -v flag lowers it one more step.
func newLogger(verbose int) *slog.Logger {
	level := slog.LevelWarn
	switch os.Getenv("SERVER_LOGLEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}
	level -= slog.Level(4 * verbose)
	if level < slog.LevelDebug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

func flagOrEnv(value, name string) string {
	if value != "" {
		return value
	}
	return os.Getenv(name)
}

// readPassword supplies PDF passwords: first the -p argument, then
// interactive prompts while stdin is a terminal.  Servers run the
// command without a terminal and only get the -p value.
func readPassword(_ []byte, try int) string {
	if *passwdArg != "" {
		if try == 0 {
			return *passwdArg
		}
		try--
	}
	if !term.IsTerminal(syscall.Stdin) || try > 2 {
		return ""
	}
	fmt.Fprint(os.Stderr, "password: ")
	passwd, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(passwd)
}

// optionList collects repeated -o arguments.
type optionList []string

func (l *optionList) String() string {
	return strings.Join(*l, " ")
}

func (l *optionList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string {
	return strconv.Itoa(int(*v))
}

func (v *verbosity) Set(string) error {
	*v++
	return nil
}

func (v *verbosity) IsBoolFlag() bool {
	return true
}
