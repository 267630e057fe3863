package models

import "sort"

// SupportedCountries are the names an admin may color. They match the "name"
// property of the world-countries boundary dataset.
var SupportedCountries = []string{
	"Austria", "Belarus", "Bosnia and Herzegovina", "Cyprus", "Czech Republic", "Finland",
	"Georgia", "Greece", "Hungary", "Ireland", "Kosovo", "Latvia", "Luxembourg", "Macedonia",
	"Malta", "Montenegro", "Romania", "Serbia", "Slovakia", "Slovenia", "Ukraine", "Belgium",
	"Croatia", "Denmark", "Estonia", "France", "Germany", "Lithuania", "Norway", "Portugal",
	"Spain", "Sweden", "Switzerland", "Netherlands", "Albania", "Andorra", "Armenia", "Azerbaijan",
	"Bulgaria", "Channel Islands", "Greenland", "Iceland", "Israel", "Italy", "Moldova", "Monaco",
	"Morocco", "Poland", "San Marino", "Turkey", "Indonesia", "Laos", "Malaysia", "Mongolia", "Myanmar",
	"United Kingdom", "Philippines", "Singapore", "South Korea", "Taiwan", "Thailand", "Vietnam", "Bahrain",
	"Japan", "Egypt", "Jordan", "Kuwait", "Lebanon", "Oman", "Qatar", "Saudi Arabia",
	"United Arab Emirates", "Australia", "Fiji", "New Zealand",
}

var supportedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(SupportedCountries))
	for _, name := range SupportedCountries {
		set[name] = struct{}{}
	}
	return set
}()

// IsSupportedCountry is an exact, case-sensitive match against SupportedCountries
func IsSupportedCountry(name string) bool {
	_, ok := supportedSet[name]
	return ok
}

// SortedCountries returns the supported list alphabetically, for pickers
func SortedCountries() []string {
	out := make([]string, len(SupportedCountries))
	copy(out, SupportedCountries)
	sort.Strings(out)
	return out
}
