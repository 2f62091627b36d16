package device

import (
	"fmt"
	"time"
)

// Firmware is a host or wifi firmware version reported by a bulb
type Firmware struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
	Build uint64 `json:"build"`
}

// String returns the firmware as "major.minor", or empty if never fetched
func (f Firmware) String() string {
	if f == (Firmware{}) {
		return ""
	}
	return fmt.Sprintf("%d.%d", f.Major, f.Minor)
}

// Device represents a discovered LIFX bulb
type Device struct {
	// ID is the bulb MAC address (e.g., "d0:73:d5:01:02:03")
	ID string `json:"id"`

	// Label is the user-assigned bulb name, empty until fetched
	Label string `json:"label"`

	// Location and Group are the bulb's collection labels, empty until fetched
	Location string `json:"location"`
	Group    string `json:"group"`

	// Vendor and Product are hardware codes from StateVersion.
	// Product 0 means not yet fetched.
	Vendor  uint32 `json:"vendor"`
	Product uint32 `json:"product"`

	HostFirmware Firmware `json:"host_firmware"`
	WifiFirmware Firmware `json:"wifi_firmware"`

	// Addr is the UDP address the bulb last answered from (e.g., "192.168.1.40:56700")
	Addr string `json:"addr"`

	// DiscoveredAt is when the bulb was first registered
	DiscoveredAt time.Time `json:"discovered_at"`
}

// DisplayName returns the label if known, otherwise the ID
func (d Device) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// ProductName returns the human-readable product name
func (d Device) ProductName() string {
	return ProductName(d.Product)
}

// State is the color and power state returned by a light query.
// A nil *State means no data was obtained.
type State struct {
	Hue        uint16 `json:"hue"`
	Saturation uint16 `json:"saturation"`
	Brightness uint16 `json:"brightness"`
	Kelvin     uint16 `json:"kelvin"`
	Power      uint16 `json:"power"`
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s %q at %s", d.ProductName(), d.DisplayName(), d.Addr)
}
