package memory

import "strings"

// interestKeywords maps an interest tag to words that suggest it. Order is
// the order tags are reported in.
var interestKeywords = []struct {
	tag      string
	keywords []string
}{
	{"旅遊", []string{"旅遊", "旅行", "景點", "出遊", "去了", "玩"}},
	{"攝影", []string{"攝影", "拍照", "照片", "相機", "夜景", "風景"}},
	{"城市景觀", []string{"101", "夜景", "大樓", "城市", "街景"}},
	{"美食", []string{"美食", "好吃", "餐廳", "小吃", "夜市", "吃"}},
	{"自然", []string{"山", "海", "湖", "森林", "步道", "日出"}},
	{"運動", []string{"運動", "跑步", "爬山", "登山", "騎車", "游泳"}},
	{"購物", []string{"購物", "逛街", "買"}},
	{"音樂", []string{"音樂", "演唱會", "唱歌"}},
	{"閱讀", []string{"閱讀", "書店", "看書"}},
}

// Interests returns the comma-separated interest tags suggested by text.
func Interests(text string) string {
	var tags []string
	for _, entry := range interestKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	return strings.Join(tags, ", ")
}
