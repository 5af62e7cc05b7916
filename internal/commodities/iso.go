package commodities

// isoCurrency carries the display symbol and fractional granularity of a
// well-known ISO 4217 currency.
type isoCurrency struct {
	symbol   string
	fraction int64
}

// isoCurrencies lists the currencies the registry creates on first
// resolution. Fractions follow ISO 4217 minor units.
var isoCurrencies = map[string]isoCurrency{
	"USD": {"$", 100},
	"EUR": {"€", 100},
	"GBP": {"£", 100},
	"JPY": {"¥", 1},
	"CHF": {"CHF", 100},
	"CAD": {"C$", 100},
	"AUD": {"A$", 100},
	"NZD": {"NZ$", 100},
	"SEK": {"kr", 100},
	"NOK": {"kr", 100},
	"DKK": {"kr", 100},
	"CZK": {"Kč", 100},
	"PLN": {"zł", 100},
	"HUF": {"Ft", 100},
	"RON": {"lei", 100},
	"CNY": {"¥", 100},
	"HKD": {"HK$", 100},
	"SGD": {"S$", 100},
	"KRW": {"₩", 1},
	"INR": {"₹", 100},
	"BRL": {"R$", 100},
	"MXN": {"Mex$", 100},
	"ZAR": {"R", 100},
	"TRY": {"₺", 100},
	"ILS": {"₪", 100},
	"BHD": {".د.ب", 1000},
	"KWD": {"د.ك", 1000},
	"TND": {"د.ت", 1000},
}

// regionCurrencies maps locale region codes to currency codes for the
// locale-derived Default fallback.
var regionCurrencies = map[string]string{
	"US": "USD",
	"GB": "GBP",
	"DE": "EUR",
	"FR": "EUR",
	"ES": "EUR",
	"IT": "EUR",
	"NL": "EUR",
	"AT": "EUR",
	"IE": "EUR",
	"PT": "EUR",
	"JP": "JPY",
	"CH": "CHF",
	"CA": "CAD",
	"AU": "AUD",
	"NZ": "NZD",
	"SE": "SEK",
	"NO": "NOK",
	"DK": "DKK",
	"CZ": "CZK",
	"PL": "PLN",
	"CN": "CNY",
	"HK": "HKD",
	"SG": "SGD",
	"KR": "KRW",
	"IN": "INR",
	"BR": "BRL",
	"MX": "MXN",
	"ZA": "ZAR",
	"TR": "TRY",
	"IL": "ILS",
}
