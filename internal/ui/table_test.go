package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/muurk/lifx-exporter/internal/device"
)

func TestNewDeviceRow(t *testing.T) {
	d := device.Device{
		ID:           "d0:73:d5:00:00:01",
		Label:        "Desk",
		Location:     "Office",
		Group:        "Lamps",
		Product:      27,
		HostFirmware: device.Firmware{Major: 3, Minor: 70},
		Addr:         "192.168.1.40:56700",
	}

	tests := []struct {
		name  string
		state *device.State
		want  DeviceRow
	}{
		{
			name:  "unreachable",
			state: nil,
			want: DeviceRow{
				Name: "Desk", ID: d.ID, Addr: "192.168.1.40", Product: "LIFX A19",
				Location: "Office", Group: "Lamps", Firmware: "3.70",
			},
		},
		{
			name:  "full brightness on",
			state: &device.State{Hue: 0xFFFF, Saturation: 0x8000, Brightness: 0xFFFF, Kelvin: 3500, Power: 0xFFFF},
			want: DeviceRow{
				Name: "Desk", ID: d.ID, Addr: "192.168.1.40", Product: "LIFX A19",
				Location: "Office", Group: "Lamps", Firmware: "3.70",
				Reachable: true, On: true, Hue: 360, Sat: 50, Bright: 100, Kelvin: 3500,
			},
		},
		{
			name:  "off",
			state: &device.State{Kelvin: 2700},
			want: DeviceRow{
				Name: "Desk", ID: d.ID, Addr: "192.168.1.40", Product: "LIFX A19",
				Location: "Office", Group: "Lamps", Firmware: "3.70",
				Reachable: true, Kelvin: 2700,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewDeviceRow(d, tt.state); got != tt.want {
				t.Errorf("NewDeviceRow() = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func testRows() []DeviceRow {
	return []DeviceRow{
		NewDeviceRow(device.Device{ID: "d0:73:d5:00:00:01", Label: "Kitchen", Location: "Home", Group: "Downstairs", Product: 27, Addr: "10.0.0.2:56700"},
			&device.State{Brightness: 0xFFFF, Kelvin: 2700, Power: 0xFFFF}),
		NewDeviceRow(device.Device{ID: "d0:73:d5:00:00:02", Addr: "10.0.0.3:56700"}, nil),
	}
}

func TestRenderDeviceTable(t *testing.T) {
	out := RenderDeviceTable(testRows(), 200)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}

	for _, want := range []string{"NAME", "LOCATION", "FIRMWARE", "COLOR"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header missing %s: %q", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "Kitchen") || !strings.Contains(lines[1], "on") || !strings.Contains(lines[1], "2700K") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "unreachable") || !strings.Contains(lines[2], device.UnknownProduct) {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestRenderDeviceTable_Narrow(t *testing.T) {
	out := RenderDeviceTable(testRows(), 60)
	header := strings.Split(out, "\n")[0]

	for _, dropped := range []string{"ADDRESS", "LOCATION", "GROUP", "FIRMWARE"} {
		if strings.Contains(header, dropped) {
			t.Errorf("narrow table should drop %s: %q", dropped, header)
		}
	}
	for _, kept := range []string{"NAME", "ID", "TYPE", "POWER", "COLOR"} {
		if !strings.Contains(header, kept) {
			t.Errorf("narrow table should keep %s: %q", kept, header)
		}
	}
}

func TestRenderDeviceTable_Empty(t *testing.T) {
	if out := RenderDeviceTable(nil, 80); !strings.Contains(out, "No bulbs found") {
		t.Errorf("RenderDeviceTable(nil) = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a rather long bulb name", 10, "a rather …"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestHeaderRender(t *testing.T) {
	out := NewHeader("LIFX Scan", "lifx-exporter scan",
		Param{Key: "Broadcast", Value: "255.255.255.255:56700"},
		Param{Key: "Timeout", Value: "5s"},
	).SetWidth(80).Render()

	for _, want := range []string{"LIFX SCAN", "lifx-exporter scan", "Broadcast:", "Timeout:"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Broadcast:") > strings.Index(out, "Timeout:") {
		t.Error("params should render in order")
	}
}

func TestResultRender(t *testing.T) {
	ok := NewSuccessResult("Found 2 bulbs", Param{Key: "Duration", Value: "5s"}).SetWidth(80).Render()
	if !strings.Contains(ok, "Found 2 bulbs") || !strings.Contains(ok, "Duration:") {
		t.Errorf("success box:\n%s", ok)
	}

	fail := NewFailureResult("Scan failed", errors.New("address in use"), "Stop the other exporter").SetWidth(80).Render()
	for _, want := range []string{"FAILED", "address in use", "Troubleshooting:", "Stop the other exporter"} {
		if !strings.Contains(fail, want) {
			t.Errorf("failure box missing %q:\n%s", want, fail)
		}
	}
}
