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
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
)

// maxFormDepth limits the nesting of form XObjects, to protect against
// cyclic references.
const maxFormDepth = 12

// graphicsState is the part of the PDF graphics state which affects the
// rendered output.  Dash patterns, line joins and transfer functions are
// not modelled.
type graphicsState struct {
	ctm         matrix.Matrix // content coordinates to device pixels
	fill        color.Color
	stroke      color.Color
	fillSpace   colorSpace
	strokeSpace colorSpace
	lineWidth   float64

	font       *glyphSource
	fontSize   float64
	charSpace  float64
	wordSpace  float64
	hscale     float64
	leading    float64
	rise       float64
	renderMode int
}

// pathSeg is one step of the current path, in device coordinates.
type pathSeg struct {
	op byte // 'm', 'l', 'c', 'h'
	pt [6]float64
}

// renderer executes content stream operators against a raster image.
type renderer struct {
	doc *Document
	dst draw.Image
	ras *vector.Rasterizer

	width, height int
	offX, offY    float64

	state graphicsState
	stack []graphicsState
	res   pdf.Dict

	path       []pathSeg
	curX, curY float64
	sx, sy     float64 // start of the current subpath

	tm, tlm   matrix.Matrix
	formDepth int
}

func newRenderer(doc *Document, dst draw.Image, m matrix.Matrix) *renderer {
	b := dst.Bounds()
	return &renderer{
		doc:    doc,
		dst:    dst,
		ras:    vector.NewRasterizer(b.Dx(), b.Dy()),
		width:  b.Dx(),
		height: b.Dy(),
		offX:   float64(b.Min.X),
		offY:   float64(b.Min.Y),
		state: graphicsState{
			ctm:         m,
			fill:        color.Black,
			stroke:      color.Black,
			fillSpace:   colorSpace{kind: spaceGray, numValues: 1},
			strokeSpace: colorSpace{kind: spaceGray, numValues: 1},
			lineWidth:   1,
			hscale:      1,
		},
	}
}

// run executes a sequence of content stream operators.  Operators with
// missing or malformed arguments are skipped, so that damaged documents
// still produce as much output as possible.
func (r *renderer) run(ops []contentOp, resources pdf.Dict) error {
	r.res = resources
	for _, op := range ops {
		err := r.do(op)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) do(op contentOp) error {
	args := op.Args
	switch op.Name {

	// general graphics state

	case "q":
		r.stack = append(r.stack, r.state)
	case "Q":
		if n := len(r.stack); n > 0 {
			r.state = r.stack[n-1]
			r.stack = r.stack[:n-1]
		}
	case "cm":
		if m, ok := getMatrix(args); ok {
			r.state.ctm = m.Mul(r.state.ctm)
		}
	case "w":
		if v, ok := getNums(args, 1); ok {
			r.state.lineWidth = v[0]
		}
	case "gs":
		if name, ok := getName(args); ok {
			r.applyExtGState(name)
		}
	case "j", "J", "M", "d", "ri", "i":
		// not modelled

	// path construction

	case "m":
		if v, ok := getNums(args, 2); ok {
			x, y := r.devPoint(v[0], v[1])
			r.moveTo(x, y)
		}
	case "l":
		if v, ok := getNums(args, 2); ok {
			x, y := r.devPoint(v[0], v[1])
			r.lineTo(x, y)
		}
	case "c":
		if v, ok := getNums(args, 6); ok {
			x1, y1 := r.devPoint(v[0], v[1])
			x2, y2 := r.devPoint(v[2], v[3])
			x3, y3 := r.devPoint(v[4], v[5])
			r.curveTo(x1, y1, x2, y2, x3, y3)
		}
	case "v":
		if v, ok := getNums(args, 4); ok {
			x2, y2 := r.devPoint(v[0], v[1])
			x3, y3 := r.devPoint(v[2], v[3])
			r.curveTo(r.curX, r.curY, x2, y2, x3, y3)
		}
	case "y":
		if v, ok := getNums(args, 4); ok {
			x1, y1 := r.devPoint(v[0], v[1])
			x3, y3 := r.devPoint(v[2], v[3])
			r.curveTo(x1, y1, x3, y3, x3, y3)
		}
	case "re":
		if v, ok := getNums(args, 4); ok {
			x, y, w, h := v[0], v[1], v[2], v[3]
			x0, y0 := r.devPoint(x, y)
			x1, y1 := r.devPoint(x+w, y)
			x2, y2 := r.devPoint(x+w, y+h)
			x3, y3 := r.devPoint(x, y+h)
			r.moveTo(x0, y0)
			r.lineTo(x1, y1)
			r.lineTo(x2, y2)
			r.lineTo(x3, y3)
			r.closePath()
		}
	case "h":
		r.closePath()

	// path painting

	case "f", "F", "f*":
		r.fillPath(r.state.fill)
		r.path = r.path[:0]
	case "S":
		r.strokePath(r.state.stroke)
		r.path = r.path[:0]
	case "s":
		r.closePath()
		r.strokePath(r.state.stroke)
		r.path = r.path[:0]
	case "B", "B*":
		r.fillPath(r.state.fill)
		r.strokePath(r.state.stroke)
		r.path = r.path[:0]
	case "b", "b*":
		r.closePath()
		r.fillPath(r.state.fill)
		r.strokePath(r.state.stroke)
		r.path = r.path[:0]
	case "n":
		r.path = r.path[:0]
	case "W", "W*":
		// clipping paths are not modelled; output is only clipped
		// to the bounds of the destination image

	// colour

	case "g":
		if v, ok := getNums(args, 1); ok {
			r.state.fillSpace = colorSpace{kind: spaceGray, numValues: 1}
			r.state.fill = r.state.fillSpace.color(v)
		}
	case "G":
		if v, ok := getNums(args, 1); ok {
			r.state.strokeSpace = colorSpace{kind: spaceGray, numValues: 1}
			r.state.stroke = r.state.strokeSpace.color(v)
		}
	case "rg":
		if v, ok := getNums(args, 3); ok {
			r.state.fillSpace = colorSpace{kind: spaceRGB, numValues: 3}
			r.state.fill = r.state.fillSpace.color(v)
		}
	case "RG":
		if v, ok := getNums(args, 3); ok {
			r.state.strokeSpace = colorSpace{kind: spaceRGB, numValues: 3}
			r.state.stroke = r.state.strokeSpace.color(v)
		}
	case "k":
		if v, ok := getNums(args, 4); ok {
			r.state.fillSpace = colorSpace{kind: spaceCMYK, numValues: 4}
			r.state.fill = r.state.fillSpace.color(v)
		}
	case "K":
		if v, ok := getNums(args, 4); ok {
			r.state.strokeSpace = colorSpace{kind: spaceCMYK, numValues: 4}
			r.state.stroke = r.state.strokeSpace.color(v)
		}
	case "cs":
		if name, ok := getName(args); ok {
			r.state.fillSpace = r.doc.resolveColorSpaceName(r.res, name)
			r.state.fill = r.state.fillSpace.initialColor()
		}
	case "CS":
		if name, ok := getName(args); ok {
			r.state.strokeSpace = r.doc.resolveColorSpaceName(r.res, name)
			r.state.stroke = r.state.strokeSpace.initialColor()
		}
	case "sc", "scn":
		if c, ok := parseColor(r.state.fillSpace, args); ok {
			r.state.fill = c
		}
	case "SC", "SCN":
		if c, ok := parseColor(r.state.strokeSpace, args); ok {
			r.state.stroke = c
		}

	// text

	case "BT":
		r.tm = matrix.Identity
		r.tlm = matrix.Identity
	case "ET":
		// nothing to do
	case "Tc":
		if v, ok := getNums(args, 1); ok {
			r.state.charSpace = v[0]
		}
	case "Tw":
		if v, ok := getNums(args, 1); ok {
			r.state.wordSpace = v[0]
		}
	case "Tz":
		if v, ok := getNums(args, 1); ok {
			r.state.hscale = v[0] / 100
		}
	case "TL":
		if v, ok := getNums(args, 1); ok {
			r.state.leading = v[0]
		}
	case "Ts":
		if v, ok := getNums(args, 1); ok {
			r.state.rise = v[0]
		}
	case "Tr":
		if v, ok := getNums(args, 1); ok {
			r.state.renderMode = int(v[0])
		}
	case "Tf":
		if len(args) >= 2 {
			name, nameOK := args[len(args)-2].(pdf.Name)
			size, sizeOK := toFloat(args[len(args)-1])
			if nameOK && sizeOK {
				r.state.font = r.doc.loadFont(r.res, name)
				r.state.fontSize = size
			}
		}
	case "Td":
		if v, ok := getNums(args, 2); ok {
			r.textMove(v[0], v[1])
		}
	case "TD":
		if v, ok := getNums(args, 2); ok {
			r.state.leading = -v[1]
			r.textMove(v[0], v[1])
		}
	case "Tm":
		if m, ok := getMatrix(args); ok {
			r.tm = m
			r.tlm = m
		}
	case "T*":
		r.textMove(0, -r.state.leading)
	case "Tj":
		if s, ok := getString(args); ok {
			r.showText(s)
		}
	case "TJ":
		if len(args) >= 1 {
			arr, ok := args[len(args)-1].(pdf.Array)
			if !ok {
				break
			}
			for _, elem := range arr {
				switch x := elem.(type) {
				case pdf.String:
					r.showText(x)
				case pdf.Integer, pdf.Real:
					d, _ := toFloat(x)
					shift := -d / 1000 * r.state.fontSize * r.state.hscale
					r.tm = matrix.Translate(shift, 0).Mul(r.tm)
				}
			}
		}
	case "'":
		if s, ok := getString(args); ok {
			r.textMove(0, -r.state.leading)
			r.showText(s)
		}
	case "\"":
		if len(args) >= 3 {
			aw, okW := toFloat(args[len(args)-3])
			ac, okC := toFloat(args[len(args)-2])
			s, okS := args[len(args)-1].(pdf.String)
			if okW && okC && okS {
				r.state.wordSpace = aw
				r.state.charSpace = ac
				r.textMove(0, -r.state.leading)
				r.showText(s)
			}
		}

	// XObjects and images

	case "Do":
		if name, ok := getName(args); ok {
			return r.doXObject(name)
		}
	case "BI":
		// inline image data was discarded by the tokenizer
	case "sh":
		// shading patterns are not modelled

	// remaining operators (marked content, compatibility, type 3
	// glyph metrics) do not affect the output

	}
	return nil
}

// textMove starts a new line of text at an offset from the start of the
// previous line.
func (r *renderer) textMove(tx, ty float64) {
	r.tlm = matrix.Translate(tx, ty).Mul(r.tlm)
	r.tm = r.tlm
}

// devPoint maps a point from content coordinates to the coordinate
// system of the rasterizer.
func (r *renderer) devPoint(x, y float64) (float64, float64) {
	m := &r.state.ctm
	dx := m[0]*x + m[2]*y + m[4] - r.offX
	dy := m[1]*x + m[3]*y + m[5] - r.offY
	return dx, dy
}

func (r *renderer) moveTo(x, y float64) {
	r.path = append(r.path, pathSeg{op: 'm', pt: [6]float64{x, y}})
	r.curX, r.curY = x, y
	r.sx, r.sy = x, y
}

func (r *renderer) lineTo(x, y float64) {
	r.path = append(r.path, pathSeg{op: 'l', pt: [6]float64{x, y}})
	r.curX, r.curY = x, y
}

func (r *renderer) curveTo(x1, y1, x2, y2, x3, y3 float64) {
	r.path = append(r.path, pathSeg{op: 'c', pt: [6]float64{x1, y1, x2, y2, x3, y3}})
	r.curX, r.curY = x3, y3
}

func (r *renderer) closePath() {
	r.path = append(r.path, pathSeg{op: 'h'})
	r.curX, r.curY = r.sx, r.sy
}

// fillPath rasterizes the current path and fills it with col, using the
// non-zero winding rule.  Every subpath is closed before rasterization.
func (r *renderer) fillPath(col color.Color) {
	if len(r.path) == 0 {
		return
	}
	r.ras.Reset(r.width, r.height)
	open := false
	for _, s := range r.path {
		switch s.op {
		case 'm':
			if open {
				r.ras.ClosePath()
			}
			r.ras.MoveTo(float32(s.pt[0]), float32(s.pt[1]))
			open = true
		case 'l':
			r.ras.LineTo(float32(s.pt[0]), float32(s.pt[1]))
		case 'c':
			r.ras.CubeTo(float32(s.pt[0]), float32(s.pt[1]),
				float32(s.pt[2]), float32(s.pt[3]),
				float32(s.pt[4]), float32(s.pt[5]))
		case 'h':
			r.ras.ClosePath()
			open = false
		}
	}
	if open {
		r.ras.ClosePath()
	}
	r.ras.Draw(r.dst, r.dst.Bounds(), image.NewUniform(col), image.Point{})
}

// strokePath draws the current path as a sequence of filled quadrilaterals,
// one per line segment.  Curves are flattened into chords first.  Line
// joins and caps are not modelled.
func (r *renderer) strokePath(col color.Color) {
	if len(r.path) == 0 {
		return
	}

	m := &r.state.ctm
	scale := (math.Hypot(m[0], m[1]) + math.Hypot(m[2], m[3])) / 2
	w := r.state.lineWidth * scale / 2
	if w < 0.5 {
		w = 0.5
	}

	r.ras.Reset(r.width, r.height)
	var sx, sy, cx, cy float64
	for _, s := range r.path {
		switch s.op {
		case 'm':
			cx, cy = s.pt[0], s.pt[1]
			sx, sy = cx, cy
		case 'l':
			r.strokeSegment(cx, cy, s.pt[0], s.pt[1], w)
			cx, cy = s.pt[0], s.pt[1]
		case 'c':
			x0, y0 := cx, cy
			const steps = 16
			for i := 1; i <= steps; i++ {
				t := float64(i) / steps
				x, y := cubicPoint(x0, y0, s.pt[0], s.pt[1], s.pt[2], s.pt[3], s.pt[4], s.pt[5], t)
				r.strokeSegment(cx, cy, x, y, w)
				cx, cy = x, y
			}
		case 'h':
			r.strokeSegment(cx, cy, sx, sy, w)
			cx, cy = sx, sy
		}
	}
	r.ras.Draw(r.dst, r.dst.Bounds(), image.NewUniform(col), image.Point{})
}

func (r *renderer) strokeSegment(x0, y0, x1, y1, w float64) {
	vx, vy := x1-x0, y1-y0
	l := math.Hypot(vx, vy)
	if l == 0 {
		return
	}
	nx, ny := -vy/l*w, vx/l*w
	r.ras.MoveTo(float32(x0+nx), float32(y0+ny))
	r.ras.LineTo(float32(x1+nx), float32(y1+ny))
	r.ras.LineTo(float32(x1-nx), float32(y1-ny))
	r.ras.LineTo(float32(x0-nx), float32(y0-ny))
	r.ras.ClosePath()
}

func cubicPoint(x0, y0, x1, y1, x2, y2, x3, y3, t float64) (float64, float64) {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return a*x0 + b*x1 + c*x2 + d*x3, a*y0 + b*y1 + c*y2 + d*y3
}

// applyExtGState applies the supported entries of a named graphics state
// parameter dictionary.
func (r *renderer) applyExtGState(name pdf.Name) {
	dicts, err := pdf.GetDict(r.doc.r, r.res["ExtGState"])
	if err != nil || dicts == nil {
		return
	}
	gs, err := pdf.GetDict(r.doc.r, dicts[name])
	if err != nil || gs == nil {
		return
	}
	if lw, err := pdf.GetNumber(r.doc.r, gs["LW"]); err == nil && gs["LW"] != nil {
		r.state.lineWidth = float64(lw)
	}
	if fontArr, err := pdf.GetArray(r.doc.r, gs["Font"]); err == nil && len(fontArr) == 2 {
		if size, err := pdf.GetNumber(r.doc.r, fontArr[1]); err == nil {
			r.state.font = r.doc.loadFontDict(fontArr[0])
			r.state.fontSize = float64(size)
		}
	}
}

// doXObject executes the named XObject from the current resource
// dictionary.  Unsupported XObject types are ignored.
func (r *renderer) doXObject(name pdf.Name) error {
	xobjs, err := pdf.GetDict(r.doc.r, r.res["XObject"])
	if err != nil || xobjs == nil {
		return nil
	}
	obj := xobjs[name]
	stm, err := pdf.GetStream(r.doc.r, obj)
	if err != nil || stm == nil {
		return nil
	}
	subtype, _ := pdf.GetName(r.doc.r, stm.Dict["Subtype"])
	switch subtype {
	case "Image":
		return r.drawImage(obj, stm)
	case "Form":
		return r.doForm(obj, stm)
	}
	return nil
}

// doForm executes a form XObject.  The graphics state and the resource
// dictionary are restored afterwards, even if the form leaves unbalanced
// q/Q pairs behind.
func (r *renderer) doForm(obj pdf.Object, stm *pdf.Stream) error {
	if r.formDepth >= maxFormDepth {
		return nil
	}

	ref, hasRef := obj.(pdf.Reference)
	ops, cached := r.doc.page.forms[ref]
	if !hasRef || !cached {
		body, err := pdf.DecodeStream(r.doc.r, stm, 0)
		if err != nil {
			return nil
		}
		ops, err = tokenizeContent(body, nil)
		if err != nil {
			return nil
		}
		if hasRef {
			r.doc.page.forms[ref] = ops
		}
	}

	formRes, _ := pdf.GetDict(r.doc.r, stm.Dict["Resources"])
	if formRes == nil {
		formRes = r.res
	}

	saved := r.state
	savedRes := r.res
	savedDepth := len(r.stack)

	if mtx, err := pdf.GetArray(r.doc.r, stm.Dict["Matrix"]); err == nil && len(mtx) == 6 {
		var fm matrix.Matrix
		ok := true
		for i, elem := range mtx {
			obj, err := pdf.Resolve(r.doc.r, elem)
			if err != nil {
				ok = false
				break
			}
			v, isNum := toFloat(obj)
			if !isNum {
				ok = false
				break
			}
			fm[i] = v
		}
		if ok {
			r.state.ctm = fm.Mul(r.state.ctm)
		}
	}

	r.formDepth++
	err := r.run(ops, formRes)
	r.formDepth--

	r.state = saved
	r.res = savedRes
	if len(r.stack) > savedDepth {
		r.stack = r.stack[:savedDepth]
	}
	return err
}

// argument helpers; operators take their arguments from the end of the
// argument list, so that damaged streams with stray leading tokens still
// render

func toFloat(obj pdf.Object) (float64, bool) {
	switch x := obj.(type) {
	case pdf.Integer:
		return float64(x), true
	case pdf.Real:
		return float64(x), true
	}
	return 0, false
}

func getNums(args []pdf.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	res := make([]float64, n)
	for i := 0; i < n; i++ {
		v, ok := toFloat(args[len(args)-n+i])
		if !ok {
			return nil, false
		}
		res[i] = v
	}
	return res, true
}

func getMatrix(args []pdf.Object) (matrix.Matrix, bool) {
	v, ok := getNums(args, 6)
	if !ok {
		return matrix.Identity, false
	}
	return matrix.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}

func getName(args []pdf.Object) (pdf.Name, bool) {
	if len(args) < 1 {
		return "", false
	}
	name, ok := args[len(args)-1].(pdf.Name)
	return name, ok
}

func getString(args []pdf.Object) (pdf.String, bool) {
	if len(args) < 1 {
		return nil, false
	}
	s, ok := args[len(args)-1].(pdf.String)
	return s, ok
}
