// Package cli provides the command-line interface for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successText = color.New(color.FgGreen)
	errorText   = color.New(color.FgRed)
	warningText = color.New(color.FgYellow)
	infoText    = color.New(color.FgCyan)
	boldText    = color.New(color.Bold)
	dimText     = color.New(color.Faint)
)

// Output handles formatted output for the CLI. In JSON mode all color
// is suppressed so the stream stays machine-readable.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output bound to the command's stdout.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(successText, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(errorText, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(warningText, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(infoText, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(boldText, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(dimText, format, args...)
}

func (o *Output) colored(c *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if o.colorEnabled {
		c.Fprintln(o.writer, msg)
	} else {
		fmt.Fprintln(o.writer, msg)
	}
}

func (o *Output) sprint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.sprint(successText, text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.sprint(errorText, text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.sprint(warningText, text)
}

// Cyan returns cyan colored text.
func (o *Output) Cyan(text string) string {
	return o.sprint(infoText, text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.sprint(dimText, text)
}

// FormatChangePercent formats a signed change percent, green for gains
// and red for losses.
func (o *Output) FormatChangePercent(pct float64) string {
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	formatted := fmt.Sprintf("%s%.2f%%", sign, pct)
	switch {
	case pct > 0:
		return o.sprint(successText, formatted)
	case pct < 0:
		return o.sprint(errorText, formatted)
	}
	return formatted
}

// Table renders aligned columnar output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to the output.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	headerCells := make([]string, 0, len(t.headers))
	for i, h := range t.headers {
		headerCells = append(headerCells, t.output.sprint(boldText, pad(h, widths[i])))
	}
	t.output.Println(strings.Join(headerCells, "  "))

	sepCells := make([]string, 0, len(widths))
	for _, w := range widths {
		sepCells = append(sepCells, strings.Repeat("─", w))
	}
	t.output.Println(t.output.DimText(strings.Join(sepCells, "──")))

	for _, row := range t.rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, pad(cell, widths[i]))
			}
		}
		t.output.Println(strings.Join(cells, "  "))
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// displayWidth returns the printable width of a cell, ignoring ANSI
// escape sequences.
func displayWidth(s string) int {
	return len(ansiPattern.ReplaceAllString(s, ""))
}

// pad right-pads a cell to the given display width.
func pad(s string, width int) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
