package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#005FAF")).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#00AAAA")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// helpEntry is one rendered argument or flag line.
type helpEntry struct {
	name       string
	help       string
	defaultVal string
}

// StyledHelpPrinter creates a custom help printer with Lipgloss styling
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		// Title and description
		sb.WriteString(helpTitleStyle.Render("TTS Sync 🎬"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Synthesize speech timed to a subtitle file"))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(fmt.Sprintf("%s [flags] <subtitles>", ctx.Model.Name))
		sb.WriteString("\n")

		writeEntries(&sb, "Arguments:", helpArgStyle, collectArguments(ctx))
		writeEntries(&sb, "Flags:", helpFlagStyle, collectFlags(ctx))

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

// writeEntries renders one section of the help text.
func writeEntries(sb *strings.Builder, section string, nameStyle lipgloss.Style, entries []helpEntry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(section))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(e.name))
		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}
		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func collectArguments(ctx *kong.Context) []helpEntry {
	var args []helpEntry
	for _, arg := range ctx.Model.Node.Positional {
		args = append(args, helpEntry{name: arg.Summary(), help: arg.Help})
	}
	return args
}

func collectFlags(ctx *kong.Context) []helpEntry {
	flags := []helpEntry{{
		name: "-h, --help",
		help: "Show context-sensitive help.",
	}}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue // Already added
		}

		name := fmt.Sprintf("--%s", f.Name)
		if f.Short != 0 {
			name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			name += "=" + strings.ToUpper(f.PlaceHolder)
		}

		flags = append(flags, helpEntry{
			name:       name,
			help:       f.Help,
			defaultVal: f.FormatPlaceHolder(),
		})
	}

	return flags
}
