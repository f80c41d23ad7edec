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

package pagesource

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdf"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []contentOp
	}{
		{
			name: "operator without arguments",
			in:   "q",
			want: []contentOp{{Name: "q"}},
		},
		{
			name: "integer and real arguments",
			in:   "1 0 0 -1 10.5 .25 cm",
			want: []contentOp{{
				Name: "cm",
				Args: []pdf.Object{
					pdf.Integer(1), pdf.Integer(0), pdf.Integer(0),
					pdf.Integer(-1), pdf.Real(10.5), pdf.Real(0.25),
				},
			}},
		},
		{
			name: "several operators",
			in:   "10 20 m 30 40 l S",
			want: []contentOp{
				{Name: "m", Args: []pdf.Object{pdf.Integer(10), pdf.Integer(20)}},
				{Name: "l", Args: []pdf.Object{pdf.Integer(30), pdf.Integer(40)}},
				{Name: "S"},
			},
		},
		{
			name: "string with escapes",
			in:   `(a\nb\(c\)) Tj`,
			want: []contentOp{{
				Name: "Tj",
				Args: []pdf.Object{pdf.String("a\nb(c)")},
			}},
		},
		{
			name: "nested parentheses",
			in:   "(a(b)c) Tj",
			want: []contentOp{{
				Name: "Tj",
				Args: []pdf.Object{pdf.String("a(b)c")},
			}},
		},
		{
			name: "octal escapes",
			in:   `(\101\102) Tj`,
			want: []contentOp{{
				Name: "Tj",
				Args: []pdf.Object{pdf.String("AB")},
			}},
		},
		{
			name: "hex string",
			in:   "<48656C6C6F> Tj",
			want: []contentOp{{
				Name: "Tj",
				Args: []pdf.Object{pdf.String("Hello")},
			}},
		},
		{
			name: "hex string with odd digit count",
			in:   "<48 65 6> Tj",
			want: []contentOp{{
				Name: "Tj",
				Args: []pdf.Object{pdf.String([]byte{0x48, 0x65, 0x60})},
			}},
		},
		{
			name: "name with hex escape",
			in:   "/A#20B gs",
			want: []contentOp{{
				Name: "gs",
				Args: []pdf.Object{pdf.Name("A B")},
			}},
		},
		{
			name: "array argument",
			in:   "[(a) -120 (b)] TJ",
			want: []contentOp{{
				Name: "TJ",
				Args: []pdf.Object{pdf.Array{
					pdf.String("a"), pdf.Integer(-120), pdf.String("b"),
				}},
			}},
		},
		{
			name: "dictionary argument",
			in:   "/OC <</Type/OCG>> BDC",
			want: []contentOp{{
				Name: "BDC",
				Args: []pdf.Object{
					pdf.Name("OC"),
					pdf.Dict{"Type": pdf.Name("OCG")},
				},
			}},
		},
		{
			name: "booleans",
			in:   "true false xyzzy",
			want: []contentOp{{
				Name: "xyzzy",
				Args: []pdf.Object{pdf.Bool(true), pdf.Bool(false)},
			}},
		},
		{
			name: "comment",
			in:   "% not an operator\n10 20 m",
			want: []contentOp{{
				Name: "m",
				Args: []pdf.Object{pdf.Integer(10), pdf.Integer(20)},
			}},
		},
		{
			name: "inline image",
			in:   "BI /W 2 /H 2 ID \x00\x01\x02\x03 EI Q",
			want: []contentOp{
				{
					Name: "BI",
					Args: []pdf.Object{pdf.Dict{
						"W": pdf.Integer(2),
						"H": pdf.Integer(2),
					}},
				},
				{Name: "Q"},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := tokenizeContent(strings.NewReader(test.in), nil)
			if err != nil {
				t.Fatalf("tokenizeContent: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("wrong operators (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeDamaged(t *testing.T) {
	tests := []string{
		">> f",
		"] f",
		"<< /A >> f",
		"<4g> Tj",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := tokenizeContent(strings.NewReader(in), nil)
			if err == nil {
				t.Error("expected scan error, got none")
			}
		})
	}
}

func TestTokenizeAppend(t *testing.T) {
	ops, err := tokenizeContent(strings.NewReader("q"), nil)
	if err != nil {
		t.Fatal(err)
	}
	ops, err = tokenizeContent(strings.NewReader("0 g"), ops)
	if err != nil {
		t.Fatal(err)
	}
	want := []contentOp{
		{Name: "q"},
		{Name: "g", Args: []pdf.Object{pdf.Integer(0)}},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("wrong operators (-want +got):\n%s", diff)
	}
}
