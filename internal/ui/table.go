package ui

import (
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lifx-exporter/internal/device"
)

// DeviceRow is one bulb as shown by the scan table
type DeviceRow struct {
	Name      string
	ID        string
	Addr      string
	Product   string
	Location  string
	Group     string
	Firmware  string
	Reachable bool
	On        bool
	Hue       int // degrees
	Sat       int // percent
	Bright    int // percent
	Kelvin    int
}

// NewDeviceRow builds a row from a device and its state; a nil state is unreachable
func NewDeviceRow(d device.Device, s *device.State) DeviceRow {
	row := DeviceRow{
		Name:     d.DisplayName(),
		ID:       d.ID,
		Product:  d.ProductName(),
		Location: d.Location,
		Group:    d.Group,
		Firmware: d.HostFirmware.String(),
		Addr:     hostOnly(d.Addr),
	}
	if s != nil {
		row.Reachable = true
		row.On = s.Power > 0
		row.Hue = scale(s.Hue, 360)
		row.Sat = scale(s.Saturation, 100)
		row.Bright = scale(s.Brightness, 100)
		row.Kelvin = int(s.Kelvin)
	}
	return row
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// scale maps a 16-bit protocol value onto 0..top, rounded
func scale(v uint16, top int) int {
	return (int(v)*top + 0xFFFF/2) / 0xFFFF
}

type column struct {
	title string
	value func(DeviceRow) string
	wide  bool // dropped on narrow terminals
}

var columns = []column{
	{title: "NAME", value: func(r DeviceRow) string { return truncate(r.Name, 24) }},
	{title: "ID", value: func(r DeviceRow) string { return r.ID }},
	{title: "ADDRESS", value: func(r DeviceRow) string { return r.Addr }, wide: true},
	{title: "TYPE", value: func(r DeviceRow) string { return r.Product }},
	{title: "LOCATION", value: func(r DeviceRow) string { return r.Location }, wide: true},
	{title: "GROUP", value: func(r DeviceRow) string { return r.Group }, wide: true},
	{title: "FIRMWARE", value: func(r DeviceRow) string { return r.Firmware }, wide: true},
	{title: "POWER", value: powerText},
	{title: "COLOR", value: colorText},
}

func powerText(r DeviceRow) string {
	switch {
	case !r.Reachable:
		return "?"
	case r.On:
		return PowerOnMarker + " on"
	default:
		return PowerOffMark + " off"
	}
}

func colorText(r DeviceRow) string {
	if !r.Reachable {
		return "unreachable"
	}
	return fmt.Sprintf("%d° %d%% %d%% %dK", r.Hue, r.Sat, r.Bright, r.Kelvin)
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) > n-1 {
		runes = runes[:n-1]
	}
	return string(runes) + "…"
}

// RenderDeviceTable renders rows as an aligned table. Columns marked wide are
// dropped, right to left, until the table fits width.
func RenderDeviceTable(rows []DeviceRow, width int) string {
	if len(rows) == 0 {
		return TableMutedCellStyle.Render("  No bulbs found.")
	}

	cols := fitColumns(rows, width)
	widths := columnWidths(cols, rows)

	var b strings.Builder
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = TableHeaderStyle.Render(padRight(c.title, widths[i]))
	}
	b.WriteString("  " + strings.Join(cells, "  ") + "\n")

	for _, r := range rows {
		for i, c := range cols {
			cells[i] = cellStyle(c.title, r).Render(padRight(c.value(r), widths[i]))
		}
		b.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func cellStyle(title string, r DeviceRow) lipgloss.Style {
	switch {
	case title == "POWER" && r.Reachable && r.On:
		return PowerOnStyle
	case title == "POWER" && r.Reachable:
		return PowerOffStyle
	case (title == "POWER" || title == "COLOR") && !r.Reachable:
		return UnreachableStyle
	case title == "ID" || title == "ADDRESS" || title == "FIRMWARE":
		return TableMutedCellStyle
	default:
		return TableCellStyle
	}
}

func fitColumns(rows []DeviceRow, width int) []column {
	cols := append([]column(nil), columns...)
	for tableWidth(cols, rows) > width {
		dropped := false
		for i := len(cols) - 1; i >= 0; i-- {
			if cols[i].wide {
				cols = append(cols[:i], cols[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}
	return cols
}

func columnWidths(cols []column, rows []DeviceRow) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.title)
		for _, r := range rows {
			widths[i] = max(widths[i], lipgloss.Width(c.value(r)))
		}
	}
	return widths
}

func tableWidth(cols []column, rows []DeviceRow) int {
	total := 2
	for _, w := range columnWidths(cols, rows) {
		total += w + 2
	}
	return total - 2
}
