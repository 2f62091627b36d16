package device

import "strconv"

// UnknownProduct is reported while the product code has not been fetched
const UnknownProduct = "unknown"

// products maps LIFX product codes (vendor 1) to names
var products = map[uint32]string{
	1:  "LIFX Original 1000",
	3:  "LIFX Color 650",
	10: "LIFX White 800 (Low Voltage)",
	11: "LIFX White 800 (High Voltage)",
	18: "LIFX White 900 BR30 (Low Voltage)",
	20: "LIFX Color 1000 BR30",
	22: "LIFX Color 1000",
	27: "LIFX A19",
	28: "LIFX BR30",
	29: "LIFX A19 Night Vision",
	30: "LIFX BR30 Night Vision",
	31: "LIFX Z",
	32: "LIFX Z 2",
	36: "LIFX Downlight",
	37: "LIFX Downlight",
	43: "LIFX A19",
	44: "LIFX BR30",
	45: "LIFX A19 Night Vision",
	46: "LIFX BR30 Night Vision",
	49: "LIFX Mini Color",
	50: "LIFX Mini White to Warm",
	51: "LIFX Mini White",
	52: "LIFX GU10",
	55: "LIFX Tile",
	57: "LIFX Candle",
}

// ProductName resolves a product code. Code 0 resolves to UnknownProduct and
// any other unmapped code to its decimal string.
func ProductName(code uint32) string {
	if code == 0 {
		return UnknownProduct
	}
	if name, ok := products[code]; ok {
		return name
	}
	return strconv.FormatUint(uint64(code), 10)
}
