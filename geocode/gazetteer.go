package geocode

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// gazetteerNames are the place names detected in free text.
var gazetteerNames = []string{
	"台北101", "臺北101", "台北車站", "西門町", "士林夜市", "故宮博物院", "中正紀念堂", "陽明山", "象山",
	"九份", "淡水", "野柳", "平溪", "十分", "烏來", "北投",
	"日月潭", "阿里山", "墾丁", "太魯閣", "清境農場", "合歡山", "玉山", "綠島", "蘭嶼",
	"逢甲夜市", "高美濕地", "彩虹眷村", "鹿港", "安平古堡", "赤崁樓", "駁二", "旗津", "愛河", "六合夜市",
	"七星潭", "三仙台", "知本", "池上", "礁溪",
	"台北", "臺北", "新北", "基隆", "桃園", "新竹", "苗栗", "台中", "臺中", "彰化", "南投",
	"雲林", "嘉義", "台南", "臺南", "高雄", "屏東", "宜蘭", "花蓮", "台東", "臺東", "澎湖", "金門", "馬祖",
	"東京", "大阪", "京都", "首爾", "香港", "澳門", "上海", "北京", "新加坡", "曼谷",
}

// regionMarkers are substrings that tie a name to Taiwan.
var regionMarkers = []string{
	"台灣", "臺灣", "台北", "臺北", "新北", "基隆", "桃園", "新竹", "苗栗", "台中", "臺中", "彰化", "南投",
	"雲林", "嘉義", "台南", "臺南", "高雄", "屏東", "宜蘭", "花蓮", "台東", "臺東", "澎湖", "金門", "馬祖", "連江",
}

// Gazetteer detects known place names in text.
type Gazetteer struct {
	names  []string
	known  map[string]bool
	inside map[string]bool
}

// NewGazetteer builds a gazetteer from names. taiwanNames lists entries
// known to lie inside the regional box even without a marker substring.
func NewGazetteer(names, taiwanNames []string) *Gazetteer {
	g := &Gazetteer{
		names:  slices.Clone(names),
		known:  make(map[string]bool, len(names)),
		inside: make(map[string]bool, len(taiwanNames)),
	}
	// Longest first so 台北101 wins over 台北.
	slices.SortStableFunc(g.names, func(a, b string) int {
		return cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a))
	})
	for _, n := range names {
		g.known[n] = true
	}
	for _, n := range taiwanNames {
		g.inside[n] = true
	}
	return g
}

// DefaultGazetteer returns the built-in name list.
func DefaultGazetteer() *Gazetteer {
	inside := slices.DeleteFunc(slices.Clone(gazetteerNames), func(n string) bool {
		return slices.Contains(foreignNames, n)
	})
	return NewGazetteer(gazetteerNames, inside)
}

var foreignNames = []string{"東京", "大阪", "京都", "首爾", "香港", "澳門", "上海", "北京", "新加坡", "曼谷"}

// Detect returns the first gazetteer name found in text.
func (g *Gazetteer) Detect(text string) (string, bool) {
	for _, n := range g.names {
		if strings.Contains(text, n) {
			return n, true
		}
	}
	return "", false
}

// HintsRegion reports whether name suggests a place in Taiwan: it holds
// a city or county marker or is a Taiwan gazetteer entry.
func (g *Gazetteer) HintsRegion(name string) bool {
	if g.inside[name] {
		return true
	}
	for _, m := range regionMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
