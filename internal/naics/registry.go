// Package naics holds the static NAICS registries used by the classifiers:
// the keyword to code table and the code to title table.
package naics

import (
	"maps"
	"slices"
)

// keywordCodes maps a lower-case keyword or phrase to a 6-digit code.
var keywordCodes = map[string]string{
	// technology and software
	"software":        "541511",
	"technology":      "541511",
	"tech":            "541511",
	"computer":        "541511",
	"it services":     "541511",
	"web development": "541511",
	"app development": "541511",
	"saas":            "541511",

	// internet and telecom
	"internet service provider": "517311",
	"isp":                       "517311",
	"broadband":                 "517311",
	"fiber optic":               "517311",
	"internet":                  "517311",
	"cable internet":            "517311",
	"wireless internet":         "517311",
	"telecommunications":        "517311",
	"telecom":                   "517311",

	// healthcare
	"medical":    "621111",
	"healthcare": "621111",
	"hospital":   "622110",
	"clinic":     "621111",
	"doctor":     "621111",
	"physician":  "621111",
	"dentist":    "621210",
	"pharmacy":   "446110",

	// retail and food
	"retail":       "441000",
	"store":        "441000",
	"shop":         "441000",
	"clothing":     "448110",
	"grocery":      "445110",
	"supermarket":  "445110",
	"restaurant":   "722511",
	"food service": "722511",
	"cafe":         "722513",
	"bar":          "722410",

	// professional services
	"consulting":  "541611",
	"law":         "541110",
	"legal":       "541110",
	"attorney":    "541110",
	"accounting":  "541211",
	"cpa":         "541211",
	"real estate": "531210",
	"insurance":   "524210",
	"financial":   "522110",
	"bank":        "522110",

	// construction and manufacturing
	"construction":  "236220",
	"building":      "236220",
	"contractor":    "236220",
	"manufacturing": "311000",
	"factory":       "311000",
	"automotive":    "441110",
	"auto repair":   "811111",

	// transportation
	"transportation": "484110",
	"trucking":       "484121",
	"logistics":      "484110",
	"shipping":       "484110",
	"delivery":       "492210",

	// education
	"education":  "611110",
	"school":     "611110",
	"university": "611310",
	"college":    "611310",
	"training":   "611430",

	// recreation and lodging
	"entertainment": "711130",
	"fitness":       "713940",
	"gym":           "713940",
	"sports":        "713940",
	"hotel":         "721110",
	"lodging":       "721110",

	// agriculture
	"agriculture": "111998",
	"farming":     "111998",
	"farm":        "111998",
	"landscaping": "561730",

	// energy and utilities
	"energy":    "221112",
	"utilities": "221310",
	"solar":     "237130",
	"renewable": "237130",

	// nonprofit
	"nonprofit":  "813211",
	"charity":    "813211",
	"foundation": "813211",
}

// titles maps a 6-digit code to its title.
var titles = map[string]string{
	"111998": "All Other Miscellaneous Crop Farming",
	"221112": "Fossil Fuel Electric Power Generation",
	"221310": "Water Supply and Irrigation Systems",
	"236100": "Residential Building Construction",
	"236220": "Commercial and Institutional Building Construction",
	"237130": "Power and Communication Line and Related Structures Construction",
	"311000": "Food Manufacturing",
	"441000": "Motor Vehicle and Parts Dealers",
	"441110": "New Car Dealers",
	"445110": "Supermarkets and Other Grocery (except Convenience) Stores",
	"446110": "Pharmacies and Drug Stores",
	"448110": "Men's Clothing Stores",
	"484110": "General Freight Trucking, Local",
	"484121": "General Freight Trucking, Long-Distance, Truckload",
	"492210": "Local Messengers and Local Delivery",
	"517000": "Telecommunications",
	"517311": "Wired Telecommunications Carriers",
	"517312": "Wireless Telecommunications Carriers (except Satellite)",
	"517410": "Satellite Telecommunications",
	"522110": "Commercial Banking",
	"524210": "Insurance Agencies and Brokerages",
	"531210": "Offices of Real Estate Agents and Brokers",
	"541110": "Offices of Lawyers",
	"541211": "Offices of Certified Public Accountants",
	"541330": "Engineering Services",
	"541510": "Computer Systems Design and Related Services",
	"541511": "Custom Computer Programming Services",
	"541512": "Computer Systems Design Services",
	"541611": "Administrative Management and General Management Consulting Services",
	"541810": "Advertising Agencies",
	"561730": "Landscaping Services",
	"611110": "Elementary and Secondary Schools",
	"611310": "Colleges, Universities, and Professional Schools",
	"611430": "Professional and Management Development Training",
	"621111": "Offices of Physicians (except Mental Health Specialists)",
	"621210": "Offices of Dentists",
	"622110": "General Medical and Surgical Hospitals",
	"711130": "Musical Groups and Artists",
	"713940": "Fitness and Recreational Sports Centers",
	"721110": "Hotels (except Casino Hotels) and Motels",
	"722410": "Drinking Places (Alcoholic Beverages)",
	"722511": "Full-Service Restaurants",
	"722513": "Limited-Service Restaurants",
	"811111": "General Automotive Repair",
	"813211": "Grantmaking Foundations",
	Unclassified: "Unclassified Establishments",
}

// sectors maps the 2-digit sector prefix to its title.
var sectors = map[string]string{
	"11": "Agriculture, Forestry, Fishing and Hunting",
	"21": "Mining, Quarrying, and Oil and Gas Extraction",
	"22": "Utilities",
	"23": "Construction",
	"31": "Manufacturing",
	"32": "Manufacturing",
	"33": "Manufacturing",
	"42": "Wholesale Trade",
	"44": "Retail Trade",
	"45": "Retail Trade",
	"48": "Transportation and Warehousing",
	"49": "Transportation and Warehousing",
	"51": "Information",
	"52": "Finance and Insurance",
	"53": "Real Estate and Rental and Leasing",
	"54": "Professional, Scientific, and Technical Services",
	"55": "Management of Companies and Enterprises",
	"56": "Administrative and Support and Waste Management",
	"61": "Educational Services",
	"62": "Health Care and Social Assistance",
	"71": "Arts, Entertainment, and Recreation",
	"72": "Accommodation and Food Services",
	"81": "Other Services (except Public Administration)",
	"92": "Public Administration",
	"99": "Unclassified",
}

// sortedKeywords is computed once so iteration order is deterministic.
var sortedKeywords = slices.Sorted(maps.Keys(keywordCodes))

// Keyword is one entry of the keyword table.
type Keyword struct {
	Term string
	Code string
}

// Keywords returns the keyword table in a stable order. The slice is a copy.
func Keywords() []Keyword {
	out := make([]Keyword, 0, len(sortedKeywords))
	for _, k := range sortedKeywords {
		out = append(out, Keyword{Term: k, Code: keywordCodes[k]})
	}
	return out
}

// Title returns the registered title for code, or "" if unknown.
func Title(code string) string {
	return titles[code]
}

// Known reports whether code has a registered title.
func Known(code string) bool {
	_, ok := titles[code]
	return ok
}
