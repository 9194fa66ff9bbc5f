package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/layout"
	"github.com/chazu/loom/pkg/tech"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(value))
}

// printCheck reports the outcome of loading a technology file.
func printCheck(w io.Writer, path string, res CheckResult) {
	for _, e := range res.Errors {
		printError(w, "%s:%d:%d: %s", path, e.Line, e.Col, e.Message)
	}
	for _, f := range res.Findings {
		name := ""
		if res.Tech != nil && f.Ref.Valid() {
			name = res.Tech.Print(f.Ref) + ": "
		}
		if f.Severity == tech.SeverityError {
			printError(w, "%s%s", name, f.Message)
		} else {
			printWarning(w, "%s%s", name, f.Message)
		}
	}
	if !res.OK() {
		return
	}
	t := res.Tech
	printSuccess(w, "%s", styleTitle.Render(path))
	printKeyValue(w, "paints", styleNumber.Render(fmt.Sprint(len(t.Paint))))
	printKeyValue(w, "rules", styleNumber.Render(fmt.Sprint(len(t.Rules))))
	printKeyValue(w, "levels", fmt.Sprintf("%d subst, %d route, %d via", len(t.Subst), len(t.Wires), len(t.Vias)))
	printKeyValue(w, "dbunit", fmt.Sprintf("%g um", t.DBUnit))
}

// printNets lists the nets of a traced layout with their roles.
func printNets(w io.Writer, l *layout.Layout) {
	printInfo(w, "%s: %s nets", styleTitle.Render(cellName(l)), styleNumber.Render(fmt.Sprint(len(l.Nets))))
	for i, n := range l.Nets {
		line := fmt.Sprintf("%3d %s", i, strings.Join(n.Names, " "))
		if roles := netRoles(n); roles != "" {
			line += " " + styleDim.Render("["+roles+"]")
		}
		fmt.Fprintln(w, "  "+line)
	}
}

func netRoles(n layout.Net) string {
	var roles []string
	for _, r := range []struct {
		on   bool
		name string
	}{
		{n.IsVdd, "vdd"},
		{n.IsGND, "gnd"},
		{n.IsInput, "in"},
		{n.IsOutput, "out"},
		{n.IsSub, "sub"},
	} {
		if r.on {
			roles = append(roles, r.name)
		}
	}
	return strings.Join(roles, ",")
}

// printRects lists the rectangles of an evaluated layer.
func printRects(w io.Writer, l *layout.Layout, layer *layout.Layer) {
	area := fmt.Sprint(layer.Area())
	if layer.Unbounded() {
		area = "unbounded"
	}
	printInfo(w, "%s rects, area %s", styleNumber.Render(fmt.Sprint(len(layer.Geo))), styleNumber.Render(area))
	for _, r := range layer.Geo {
		net := ""
		if r.Net != geom.NoNet && r.Net < len(l.Nets) {
			net = " " + styleDim.Render(l.Nets[r.Net].Name())
		}
		fmt.Fprintf(w, "  (%d %d) (%d %d)%s\n", r.Ll[0], r.Ll[1], r.Ur[0], r.Ur[1], net)
	}
}

func cellName(l *layout.Layout) string {
	if l.Name == "" {
		return "cell"
	}
	return l.Name
}
