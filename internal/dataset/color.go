package dataset

import "strings"

// Owner colours, 0xRRGGBB.
const (
	ColorDefault uint32 = 0xffffff
	ColorUSA     uint32 = 0x00aaff
	ColorChina   uint32 = 0xff3300
	ColorRussia  uint32 = 0x8888ff
	ColorEurope  uint32 = 0xffff00
	ColorIndia   uint32 = 0xff9900
)

var ownerColors = []struct {
	key   string
	color uint32
}{
	{"usa", ColorUSA},
	{"china", ColorChina},
	{"russia", ColorRussia},
	{"europe", ColorEurope},
	{"india", ColorIndia},
}

// ColorForOwner picks the display colour for an operator country.
// Matching is a case-insensitive substring test, first match wins.
func ColorForOwner(owner string) uint32 {
	if owner == "" {
		return ColorDefault
	}
	key := strings.ToLower(owner)
	for _, oc := range ownerColors {
		if strings.Contains(key, oc.key) {
			return oc.color
		}
	}
	return ColorDefault
}
