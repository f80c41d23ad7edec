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

package printer

import (
	"fmt"
	"strconv"
	"strings"
)

// Options holds job ticket attributes as name/value pairs, using IPP
// attribute names such as "media", "sides" or "print-color-mode".
// A nil map is valid and means no options.
type Options map[string]string

// ParseOptions parses an option string of the form
//
//	name=value name=value ...
//
// and merges the result into opt, which may be nil.  Values containing
// spaces can be quoted with single or double quotes; collection values
// are enclosed in braces and kept verbatim, braces included.  A name
// without a value is stored as "true", and a name with a "no-" prefix
// and no value is stored as the bare name with the value "false".
func ParseOptions(s string, opt Options) Options {
	if opt == nil {
		opt = make(Options)
	}
	i, n := 0, len(s)
	for i < n {
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}

		start := i
		for i < n && s[i] != '=' && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		name := s[start:i]

		var value string
		hasValue := i < n && s[i] == '='
		if hasValue {
			i++
			switch {
			case i < n && (s[i] == '\'' || s[i] == '"'):
				quote := s[i]
				i++
				start = i
				for i < n && s[i] != quote {
					i++
				}
				value = s[start:i]
				if i < n {
					i++
				}
			case i < n && s[i] == '{':
				depth := 0
				start = i
				for i < n {
					if s[i] == '{' {
						depth++
					} else if s[i] == '}' {
						depth--
						if depth == 0 {
							i++
							break
						}
					}
					i++
				}
				value = s[start:i]
			default:
				start = i
				for i < n && s[i] != ' ' && s[i] != '\t' {
					i++
				}
				value = s[start:i]
			}
		}

		switch {
		case name == "":
			// skip stray "=value"
		case !hasValue && strings.HasPrefix(name, "no-"):
			opt[name[3:]] = "false"
		case !hasValue:
			opt[name] = "true"
		default:
			opt[name] = value
		}
	}
	return opt
}

// OptionsFromEnv extracts job options from a process environment as
// returned by os.Environ.  Variables of the form "IPP_NAME=value"
// become "name=value" options, with underscores mapped to hyphens, so
// that for example IPP_PRINT_QUALITY=5 supplies print-quality=5 and
// IPP_MEDIA_DEFAULT supplies media-default.  Options already present
// in opt win over the environment.
func OptionsFromEnv(environ []string, opt Options) Options {
	if opt == nil {
		opt = make(Options)
	}
	for _, env := range environ {
		if !strings.HasPrefix(env, "IPP_") {
			continue
		}
		name, value, _ := strings.Cut(env[4:], "=")
		name = strings.ToLower(strings.ReplaceAll(name, "_", "-"))
		if name == "" {
			continue
		}
		if _, present := opt[name]; !present {
			opt[name] = value
		}
	}
	return opt
}

// trimBraces removes one level of braces around a collection value.
func trimBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	return s
}

// A Resolution is a printer resolution in dots per inch.
type Resolution struct {
	X, Y int
}

// ParseResolution parses a resolution value of the form "300dpi" or
// "300x600dpi".
func ParseResolution(s string) (Resolution, error) {
	val, ok := strings.CutSuffix(s, "dpi")
	if !ok {
		return Resolution{}, fmt.Errorf("invalid resolution %q", s)
	}
	xs, ys, hasY := strings.Cut(val, "x")
	x, err := strconv.Atoi(xs)
	if err != nil || x <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q", s)
	}
	y := x
	if hasY {
		y, err = strconv.Atoi(ys)
		if err != nil || y <= 0 {
			return Resolution{}, fmt.Errorf("invalid resolution %q", s)
		}
	}
	return Resolution{X: x, Y: y}, nil
}

// ParseResolutions parses a comma-separated list of resolutions, for
// example "300dpi,600dpi", as used by the
// pwg-raster-document-resolution-supported printer attribute.  The
// order of the list is kept: quality-based selection assumes the list
// runs from draft to high quality.
func ParseResolutions(s string) ([]Resolution, error) {
	var all []Resolution
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		res, err := ParseResolution(field)
		if err != nil {
			return nil, err
		}
		all = append(all, res)
	}
	return all, nil
}

func (r Resolution) String() string {
	if r.X == r.Y {
		return fmt.Sprintf("%ddpi", r.X)
	}
	return fmt.Sprintf("%dx%ddpi", r.X, r.Y)
}
