package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelFail
)

var checkStyles = map[checkLevel]struct {
	tag    string
	colors text.Colors
}{
	levelInfo: {"INFO", text.Colors{text.FgBlue}},
	levelOK:   {"OK", text.Colors{text.FgGreen}},
	levelWarn: {"WARN", text.Colors{text.FgYellow}},
	levelFail: {"ERROR", text.Colors{text.FgRed}},
}

var labelCaser = cases.Title(language.English)

type statusCheck struct {
	label  string
	level  checkLevel
	detail string
}

type statusSection struct {
	title  string
	checks []statusCheck
}

func (s *statusSection) add(label string, level checkLevel, detail string) {
	s.checks = append(s.checks, statusCheck{label: label, level: level, detail: detail})
}

// statusReport collects readiness checks grouped under titled sections.
type statusReport struct {
	sections []*statusSection
}

func (r *statusReport) section(title string) *statusSection {
	s := &statusSection{title: title}
	r.sections = append(r.sections, s)
	return s
}

// render writes the report. Labels are padded to the widest label so the
// status tags line up across sections.
func (r *statusReport) render(w io.Writer, colorize bool) {
	width := 0
	for _, s := range r.sections {
		for _, c := range s.checks {
			width = max(width, len(c.label)+1)
		}
	}
	paint := func(colors text.Colors, s string) string {
		if !colorize {
			return s
		}
		return colors.Sprint(s)
	}
	for i, s := range r.sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading := labelCaser.String(strings.TrimSpace(s.title))
		fmt.Fprintln(w, paint(text.Colors{text.Bold}, heading))
		for _, c := range s.checks {
			style := checkStyles[c.level]
			tag := "[" + style.tag + "]"
			line := fmt.Sprintf("  %-*s %s", width, labelCaser.String(c.label)+":", paint(style.colors, tag))
			if c.detail != "" {
				line += " " + c.detail
			}
			fmt.Fprintln(w, line)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
