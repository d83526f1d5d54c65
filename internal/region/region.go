package region

import (
	"strings"
	"unicode/utf8"
)

type Country struct {
	Code  string // ISO 3166-1 alpha-2, empty for Unknown
	Name  string
	Local string
	Flag  string
}

var Unknown = Country{Name: "Unknown", Local: "未知", Flag: "🌐"}

type rule struct {
	keyword string
	country Country
}

var (
	hongKong    = Country{"HK", "Hong Kong", "香港", "🇭🇰"}
	taiwan      = Country{"TW", "Taiwan", "台湾", "🇹🇼"}
	macau       = Country{"MO", "Macau", "澳门", "🇲🇴"}
	japan       = Country{"JP", "Japan", "日本", "🇯🇵"}
	singapore   = Country{"SG", "Singapore", "新加坡", "🇸🇬"}
	korea       = Country{"KR", "South Korea", "韩国", "🇰🇷"}
	russia      = Country{"RU", "Russia", "俄罗斯", "🇷🇺"}
	uk          = Country{"GB", "United Kingdom", "英国", "🇬🇧"}
	usa         = Country{"US", "United States", "美国", "🇺🇸"}
	germany     = Country{"DE", "Germany", "德国", "🇩🇪"}
	france      = Country{"FR", "France", "法国", "🇫🇷"}
	canada      = Country{"CA", "Canada", "加拿大", "🇨🇦"}
	australia   = Country{"AU", "Australia", "澳大利亚", "🇦🇺"}
	india       = Country{"IN", "India", "印度", "🇮🇳"}
	netherlands = Country{"NL", "Netherlands", "荷兰", "🇳🇱"}
	turkey      = Country{"TR", "Turkey", "土耳其", "🇹🇷"}
	brazil      = Country{"BR", "Brazil", "巴西", "🇧🇷"}
	vietnam     = Country{"VN", "Vietnam", "越南", "🇻🇳"}
	thailand    = Country{"TH", "Thailand", "泰国", "🇹🇭"}
	philippines = Country{"PH", "Philippines", "菲律宾", "🇵🇭"}
	malaysia    = Country{"MY", "Malaysia", "马来西亚", "🇲🇾"}
	indonesia   = Country{"ID", "Indonesia", "印尼", "🇮🇩"}
	argentina   = Country{"AR", "Argentina", "阿根廷", "🇦🇷"}
	mexico      = Country{"MX", "Mexico", "墨西哥", "🇲🇽"}
)

// table is scanned top-down and the first hit wins. Flags and local
// names come first since they are unambiguous, then city names, then
// English names, then bare ISO codes. Within a tier a keyword that
// contains another one goes first, e.g. "印度尼西亚" before "印度".
var table = buildTable()

func buildTable() []rule {
	var rules []rule
	add := func(c Country, keywords ...string) {
		for _, k := range keywords {
			rules = append(rules, rule{keyword: strings.ToLower(k), country: c})
		}
	}

	// flags
	for _, c := range countries {
		add(c, c.Flag)
	}

	// local names and cities
	add(hongKong, "香港", "深港", "沪港", "京港")
	add(taiwan, "台湾", "臺灣", "台北", "新北", "彰化")
	add(macau, "澳门", "澳門")
	add(japan, "日本", "东京", "東京", "大阪", "埼玉")
	add(singapore, "新加坡", "狮城", "獅城")
	add(korea, "韩国", "韓國", "首尔", "春川")
	add(russia, "俄罗斯", "莫斯科", "伯力")
	add(uk, "英国", "伦敦")
	add(usa, "美国", "美國", "洛杉矶", "圣何塞", "硅谷", "西雅图", "芝加哥", "纽约", "波特兰", "凤凰城")
	add(germany, "德国", "法兰克福")
	add(france, "法国", "巴黎")
	add(canada, "加拿大", "多伦多", "温哥华")
	add(australia, "澳大利亚", "澳洲", "悉尼")
	add(indonesia, "印尼", "印度尼西亚", "雅加达")
	add(india, "印度", "孟买")
	add(netherlands, "荷兰", "阿姆斯特丹")
	add(turkey, "土耳其", "伊斯坦布尔")
	add(brazil, "巴西", "圣保罗")
	add(vietnam, "越南", "胡志明")
	add(thailand, "泰国", "曼谷")
	add(philippines, "菲律宾", "马尼拉")
	add(malaysia, "马来西亚", "吉隆坡")
	add(argentina, "阿根廷")
	add(mexico, "墨西哥")

	// English names and cities
	add(hongKong, "Hong Kong", "HongKong")
	add(taiwan, "Taiwan", "Taipei")
	add(macau, "Macau", "Macao")
	add(japan, "Japan", "Tokyo", "Osaka")
	add(singapore, "Singapore")
	add(korea, "Korea", "Seoul")
	add(russia, "Russia", "Moscow")
	add(uk, "United Kingdom", "Britain", "England", "London")
	add(usa, "United States", "America", "Los Angeles", "San Jose", "Silicon Valley", "Seattle", "Chicago", "New York", "Dallas", "Miami")
	add(germany, "Germany", "Frankfurt")
	add(france, "France", "Paris")
	add(canada, "Canada", "Toronto", "Vancouver")
	add(australia, "Australia", "Sydney")
	add(indonesia, "Indonesia", "Jakarta")
	add(india, "India", "Mumbai")
	add(netherlands, "Netherlands", "Amsterdam")
	add(turkey, "Turkey", "Istanbul")
	add(brazil, "Brazil", "Sao Paulo")
	add(vietnam, "Vietnam")
	add(thailand, "Thailand", "Bangkok")
	add(philippines, "Philippines", "Manila")
	add(malaysia, "Malaysia", "Kuala Lumpur")
	add(argentina, "Argentina")
	add(mexico, "Mexico")

	// codes; only matched as standalone tokens. "GB" is left out since
	// it collides with quota pseudo-nodes like "剩余流量：10GB".
	add(hongKong, "HK", "HKG")
	add(taiwan, "TW", "TWN")
	add(macau, "MO")
	add(japan, "JP", "JPN")
	add(singapore, "SG", "SGP")
	add(korea, "KR", "KOR")
	add(russia, "RU", "RUS")
	add(uk, "UK", "GBR")
	add(usa, "US", "USA")
	add(germany, "DE", "DEU")
	add(france, "FR", "FRA")
	add(canada, "CA", "CAN")
	add(australia, "AU", "AUS")
	add(india, "IN", "IND")
	add(netherlands, "NL", "NLD")
	add(turkey, "TR", "TUR")
	add(brazil, "BR", "BRA")
	add(vietnam, "VN", "VNM")
	add(thailand, "TH", "THA")
	add(philippines, "PH", "PHL")
	add(malaysia, "MY", "MYS")
	add(argentina, "AR", "ARG")
	add(mexico, "MX", "MEX")

	return rules
}

var countries = []Country{
	hongKong, taiwan, macau, japan, singapore, korea, russia, uk, usa,
	germany, france, canada, australia, india, netherlands, turkey,
	brazil, vietnam, thailand, philippines, malaysia, indonesia,
	argentina, mexico,
}

var byName = func() map[string]Country {
	m := make(map[string]Country, len(countries)+1)
	for _, c := range countries {
		m[c.Name] = c
	}
	m[Unknown.Name] = Unknown
	return m
}()

// Lookup returns the country whose keyword first matches tag.
func Lookup(tag string) Country {
	lower := strings.ToLower(tag)
	if lower == "" {
		return Unknown
	}
	for _, r := range table {
		if matches(lower, r.keyword) {
			return r.country
		}
	}
	return Unknown
}

// Label is Lookup(tag).Name.
func Label(tag string) string {
	return Lookup(tag).Name
}

// ByName resolves a label produced by Label back to its country.
func ByName(name string) (Country, bool) {
	c, ok := byName[name]
	return c, ok
}

func matches(lowerTag, keyword string) bool {
	if !isShortCode(keyword) {
		return strings.Contains(lowerTag, keyword)
	}
	for from := 0; from < len(lowerTag); {
		i := strings.Index(lowerTag[from:], keyword)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(keyword)
		if !asciiLetterBefore(lowerTag, start) && !asciiLetterAt(lowerTag, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isShortCode(keyword string) bool {
	if len(keyword) > 3 {
		return false
	}
	for i := 0; i < len(keyword); i++ {
		if !isASCIILetter(keyword[i]) {
			return false
		}
	}
	return true
}

func asciiLetterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return r < utf8.RuneSelf && isASCIILetter(byte(r))
}

func asciiLetterAt(s string, i int) bool {
	return i < len(s) && isASCIILetter(s[i])
}

func isASCIILetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
