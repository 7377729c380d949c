package engine

import (
	"fmt"
	"strings"
)

// Hub is a trade hub: a station and the region its order book lives in.
type Hub struct {
	Name      string
	RegionID  int32
	StationID int64
}

// Abbrev returns the first four characters of the hub name, used in
// snapshot file names.
func (h Hub) Abbrev() string {
	r := []rune(h.Name)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}

func (h Hub) String() string { return h.Name }

var (
	Jita  = Hub{Name: "Jita 4-4 (The Forge)", RegionID: 10000002, StationID: 60003760}
	G0Q86 = Hub{Name: "G-0Q86 (Curse - Angel Hub)", RegionID: 10000012, StationID: 60011740}
	Amarr = Hub{Name: "Amarr VIII (Domain)", RegionID: 10000043, StationID: 60008494}
)

// Hubs lists the known trade hubs.
var Hubs = []Hub{Jita, G0Q86, Amarr}

// FindHub looks a hub up by exact name, then by unique case-insensitive prefix.
func FindHub(name string) (Hub, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Hub{}, fmt.Errorf("empty hub name")
	}
	for _, h := range Hubs {
		if h.Name == name {
			return h, nil
		}
	}
	var matches []Hub
	lower := strings.ToLower(name)
	for _, h := range Hubs {
		if strings.HasPrefix(strings.ToLower(h.Name), lower) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Hub{}, fmt.Errorf("unknown hub %q", name)
	default:
		return Hub{}, fmt.Errorf("ambiguous hub %q (%d matches)", name, len(matches))
	}
}
