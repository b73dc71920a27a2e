package geocode

// defaultOverrides pins names that remote search tends to resolve to the
// wrong place.
var defaultOverrides = map[string]Place{
	"台北101": {Name: "台北101", DisplayName: "Taipei 101", Lat: 25.0340, Lng: 121.5645},
	"臺北101": {Name: "臺北101", DisplayName: "Taipei 101", Lat: 25.0340, Lng: 121.5645},
	"九份":    {Name: "九份", DisplayName: "Jiufen", Lat: 25.1097, Lng: 121.8452},
	"墾丁":    {Name: "墾丁", DisplayName: "Kenting", Lat: 21.9460, Lng: 120.7980},
	"日月潭":   {Name: "日月潭", DisplayName: "Sun Moon Lake", Lat: 23.8573, Lng: 120.9159},
	"阿里山":   {Name: "阿里山", DisplayName: "Alishan", Lat: 23.5100, Lng: 120.8020},
	"太魯閣":   {Name: "太魯閣", DisplayName: "Taroko Gorge", Lat: 24.1580, Lng: 121.6210},
	"西門町":   {Name: "西門町", DisplayName: "Ximending", Lat: 25.0421, Lng: 121.5081},
	"士林夜市":  {Name: "士林夜市", DisplayName: "Shilin Night Market", Lat: 25.0880, Lng: 121.5241},
	"駁二":    {Name: "駁二", DisplayName: "The Pier-2 Art Center", Lat: 22.6200, Lng: 120.2815},
}

// DefaultOverrides returns a copy of the built-in override table.
func DefaultOverrides() map[string]Place {
	out := make(map[string]Place, len(defaultOverrides))
	for k, v := range defaultOverrides {
		v.Tier = TierOverride
		out[k] = v
	}
	return out
}
