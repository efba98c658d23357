package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/ui"
)

// helpRule styles every match of re with the submatch groups passed to style.
type helpRule struct {
	re    *regexp.Regexp
	style func(groups []string) string
}

var helpRules = []helpRule{
	// Group titles and section headers ("Query:", "Flags:").
	{
		re:    regexp.MustCompile(`(?m)^([A-Z][A-Za-z ]*:)[ \t]*$`),
		style: func(g []string) string { return ui.RenderAccent(g[1]) },
	},
	// Subcommand names in the command list.
	{
		re:    regexp.MustCompile(`(?m)^(  )([a-z][\w-]*)(  +)`),
		style: func(g []string) string { return g[1] + ui.RenderCommand(g[2]) + g[3] },
	},
	// Flag value types ("--origin int").
	{
		re:    regexp.MustCompile(`(--[\w-]+ )(string|int64|int|duration|strings)\b`),
		style: func(g []string) string { return g[1] + ui.RenderMuted(g[2]) },
	},
	// Defaults ("(default "http://localhost:10000")").
	{
		re:    regexp.MustCompile(`\(default [^)]*\)`),
		style: func(g []string) string { return ui.RenderMuted(g[0]) },
	},
}

// colorizedHelpFunc renders cobra's usage text and styles it when stdout
// supports color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ColorEnabled(out) {
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(m string) string {
			return r.style(r.re.FindStringSubmatch(m))
		})
	}
	return s
}
