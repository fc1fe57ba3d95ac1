package dictionary

import "strings"

// referencePopulations holds approximate 2023 populations for the countries the
// global health dataset covers. Used as the per-capita denominator of last
// resort when a query result carries no population column. Values are people,
// not thousands.
var referencePopulations = map[string]float64{
	"afghanistan":                      42_240_000,
	"argentina":                        45_770_000,
	"australia":                        26_440_000,
	"bangladesh":                       172_950_000,
	"brazil":                           216_420_000,
	"burkina faso":                     23_250_000,
	"cambodia":                         16_940_000,
	"cameroon":                         28_650_000,
	"canada":                           38_780_000,
	"chad":                             18_280_000,
	"chile":                            19_630_000,
	"china":                            1_425_670_000,
	"colombia":                         52_090_000,
	"democratic republic of the congo": 102_260_000,
	"egypt":                            112_720_000,
	"ethiopia":                         126_530_000,
	"france":                           64_760_000,
	"germany":                          83_290_000,
	"ghana":                            34_120_000,
	"guinea":                           14_190_000,
	"haiti":                            11_720_000,
	"india":                            1_428_630_000,
	"indonesia":                        277_530_000,
	"iran":                             89_170_000,
	"iraq":                             45_500_000,
	"italy":                            58_870_000,
	"japan":                            123_290_000,
	"kenya":                            55_100_000,
	"madagascar":                       30_330_000,
	"malawi":                           20_930_000,
	"mali":                             23_290_000,
	"mexico":                           128_460_000,
	"mozambique":                       33_900_000,
	"myanmar":                          54_580_000,
	"nepal":                            30_900_000,
	"niger":                            27_200_000,
	"nigeria":                          223_800_000,
	"pakistan":                         240_490_000,
	"peru":                             34_350_000,
	"philippines":                      117_340_000,
	"russia":                           144_440_000,
	"rwanda":                           14_090_000,
	"senegal":                          17_760_000,
	"sierra leone":                     8_790_000,
	"somalia":                          18_140_000,
	"south africa":                     60_410_000,
	"south korea":                      51_780_000,
	"south sudan":                      11_090_000,
	"spain":                            47_520_000,
	"sudan":                            48_110_000,
	"tanzania":                         67_440_000,
	"thailand":                         71_800_000,
	"turkey":                           85_820_000,
	"uganda":                           48_580_000,
	"ukraine":                          36_740_000,
	"united kingdom":                   67_740_000,
	"united states":                    339_990_000,
	"venezuela":                        28_440_000,
	"vietnam":                          98_860_000,
	"yemen":                            34_450_000,
	"zambia":                           20_570_000,
	"zimbabwe":                         16_660_000,
}

// placeAliases maps common variants to the canonical entry.
var placeAliases = map[string]string{
	"usa":                      "united states",
	"us":                       "united states",
	"united states of america": "united states",
	"uk":                       "united kingdom",
	"great britain":            "united kingdom",
	"drc":                      "democratic republic of the congo",
	"dr congo":                 "democratic republic of the congo",
	"viet nam":                 "vietnam",
	"republic of korea":        "south korea",
	"turkiye":                  "turkey",
	"russian federation":       "russia",
}

func canonicalPlace(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := placeAliases[key]; ok {
		return canonical
	}
	return key
}
