package galleon

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// DisplayConfig controls how DataFrames are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display. Longer frames show
	// head and tail rows around an ellipsis row. Default: 10
	MaxRows int

	// MaxCols is the maximum number of columns to display. Default: 10
	MaxCols int

	// MaxColWidth truncates longer cell content with "...". Default: 25
	MaxColWidth int

	// MinColWidth is the minimum column width for alignment. Default: 8
	MinColWidth int

	// FloatPrecision is the number of decimal places for float values. Default: 4
	FloatPrecision int

	// ShowDTypes displays data types under column names. Default: true
	ShowDTypes bool

	// ShowShape displays the (rows, columns) header. Default: true
	ShowShape bool

	// TableStyle is one of "rounded", "sharp", "ascii", "minimal". Default: "rounded"
	TableStyle string
}

// Table style characters
type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// SetTableStyle sets the table border style if it is a known one.
func SetTableStyle(style string) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	if _, ok := tableStyles[style]; ok {
		globalDisplayConfig.TableStyle = style
	}
}

// formatDisplayValue formats a cell, truncated to the configured width.
func formatDisplayValue(val any, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		s = strconv.FormatFloat(v, 'f', cfg.FloatPrecision, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', cfg.FloatPrecision, 32)
	case string:
		s = strconv.Quote(v)
	default:
		s = fmt.Sprint(v)
	}
	return truncate(s, cfg.MaxColWidth)
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// window picks at most limit positions out of n: all of them, or the head
// and tail halves around a -1 marker.
func window(n, limit int) []int {
	if limit <= 0 || n <= limit {
		return seq(0, n)
	}
	head := limit / 2
	tail := limit - head
	out := append(seq(0, head), -1)
	return append(out, seq(n-tail, n)...)
}

// String renders the DataFrame with the global display configuration.
func (df *DataFrame) String() string {
	return df.StringWithConfig(GetDisplayConfig())
}

// Print writes the rendered DataFrame and a trailing newline to w.
func (df *DataFrame) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, df.String())
	return err
}

// StringWithConfig formats the DataFrame using the provided configuration.
func (df *DataFrame) StringWithConfig(cfg DisplayConfig) string {
	if len(df.columns) == 0 {
		return "DataFrame(empty)"
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	cols := window(len(df.columns), cfg.MaxCols)
	rows := window(df.height, cfg.MaxRows)

	// cells[0] holds names, cells[1] dtypes when shown, then one line per row.
	header := make([]string, len(cols))
	dtypes := make([]string, len(cols))
	widths := make([]int, len(cols))
	body := make([][]string, len(rows))
	for r := range body {
		body[r] = make([]string, len(cols))
	}

	for c, colIdx := range cols {
		if colIdx < 0 {
			header[c], dtypes[c] = "…", "…"
			for r := range rows {
				body[r][c] = "…"
			}
			widths[c] = 1
			continue
		}
		col := df.columns[colIdx]
		header[c] = truncate(col.Name(), cfg.MaxColWidth)
		dtypes[c] = col.DType().String()
		w := max(utf8.RuneCountInString(header[c]), cfg.MinColWidth)
		if cfg.ShowDTypes {
			w = max(w, len(dtypes[c]))
		}
		for r, rowIdx := range rows {
			if rowIdx < 0 {
				body[r][c] = "…"
				continue
			}
			body[r][c] = formatDisplayValue(col.Get(rowIdx), cfg)
			w = max(w, utf8.RuneCountInString(body[r][c]))
		}
		widths[c] = w
	}

	var sb strings.Builder
	if cfg.ShowShape {
		fmt.Fprintf(&sb, "shape: (%d, %d)\n", df.height, len(df.columns))
	}
	writeRule(&sb, chars, widths, chars.topLeft, chars.topT, chars.topRight)
	writeCells(&sb, chars, widths, header, false)
	if cfg.ShowDTypes {
		writeCells(&sb, chars, widths, dtypes, false)
	}
	writeRule(&sb, chars, widths, chars.leftT, chars.cross, chars.rightT)
	for _, line := range body {
		writeCells(&sb, chars, widths, line, true)
	}
	writeRule(&sb, chars, widths, chars.bottomLeft, chars.bottomT, chars.bottomRight)

	return strings.TrimSuffix(sb.String(), "\n")
}

func writeRule(sb *strings.Builder, chars tableChars, widths []int, left, mid, right string) {
	sb.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(mid)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}

func writeCells(sb *strings.Builder, chars tableChars, widths []int, cells []string, alignRight bool) {
	sb.WriteString(chars.vertical)
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		sb.WriteString(" ")
		if alignRight {
			sb.WriteString(pad + cell)
		} else {
			sb.WriteString(cell + pad)
		}
		sb.WriteString(" ")
		sb.WriteString(chars.vertical)
	}
	sb.WriteString("\n")
}
