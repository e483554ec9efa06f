package report

import "strings"

var provinceAliases = map[string]string{
	"freestate":     "Free State",
	"free state":    "Free State",
	"fs":            "Free State",
	"ofs":           "Free State",
	"eastern cape":  "Eastern Cape",
	"easterncape":   "Eastern Cape",
	"ec":            "Eastern Cape",
	"western cape":  "Western Cape",
	"westerncape":   "Western Cape",
	"wc":            "Western Cape",
	"northern cape": "Northern Cape",
	"northerncape":  "Northern Cape",
	"nc":            "Northern Cape",
	"kwazulu-natal": "KwaZulu-Natal",
	"kwazulu natal": "KwaZulu-Natal",
	"kwazulunatal":  "KwaZulu-Natal",
	"kzn":           "KwaZulu-Natal",
	"mpumalanga":    "Mpumalanga",
	"gauteng":       "Gauteng",
	"limpopo":       "Limpopo",
	"north west":    "North West",
	"northwest":     "North West",
	"north-west":    "North West",
	"nw":            "North West",
	"lesotho":       "Lesotho",
}

// CanonicalProvince maps spelling variants such as "Freestate" to the
// province name used in the reference table. Unknown names are returned
// trimmed.
func CanonicalProvince(name string) string {
	trimmed := strings.Join(strings.Fields(name), " ")
	if canonical, ok := provinceAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
