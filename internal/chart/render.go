package chart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RenderSVG writes the view as an SVG fragment: dashed reference line at the
// starting balance, the balance polyline and a marker on the last point.
func RenderSVG(w io.Writer, v View) error {
	var pts strings.Builder
	for i, p := range v.Points {
		if i > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(num(p.X))
		pts.WriteByte(',')
		pts.WriteString(num(p.Y))
	}

	_, err := fmt.Fprintf(w, svgTpl,
		num(v.Width), num(v.Height),
		num(v.Reference), num(v.Width), num(v.Reference), ReferenceColor,
		v.Color, pts.String(),
		num(v.Last.X), num(v.Last.Y), v.Color,
	)
	return err
}

// RenderHTML writes a standalone page with the SVG chart, the balance label
// and the view as a JSON data island for scripts.
func RenderHTML(w io.Writer, v View, title string) error {
	var svg strings.Builder
	if err := RenderSVG(&svg, v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("chart: encode view: %w", err)
	}
	_, err = fmt.Fprintf(w, htmlTpl, escape(title), svg.String(), v.Balance, string(data))
	return err
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return htmlEscaper.Replace(s) }

const svgTpl = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" style="width:100%%;height:100%%;overflow:visible">` +
	`<line x1="0" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-dasharray="4 4" stroke-width="1"/>` +
	`<polyline fill="none" stroke="%s" stroke-width="3" stroke-linecap="round" stroke-linejoin="round" points="%s"/>` +
	`<circle cx="%s" cy="%s" r="4" fill="%s" stroke="#fff" stroke-width="2"/>` +
	`</svg>`

const htmlTpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>body{font-family:sans-serif;margin:0;padding:20px;background:#1b1b1b;color:#eee}.chart{width:300px;height:150px}.label{text-align:center;margin-top:5px;font-size:12px;font-weight:bold;color:#d90429}</style>
</head>
<body>
<div class="chart">%s</div>
<div class="label">Balance: $%d</div>
<script id="chart-data" type="application/json">%s</script>
</body>
</html>
`
