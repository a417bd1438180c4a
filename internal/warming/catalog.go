package warming

// Catalog is an ordered, immutable set of edge locations.
type Catalog []EdgeLocation

// Regions returns the distinct region labels in catalog order.
func (c Catalog) Regions() []string {
	seen := make(map[string]struct{}, 8)
	var out []string
	for _, loc := range c {
		if _, ok := seen[loc.Region]; ok {
			continue
		}
		seen[loc.Region] = struct{}{}
		out = append(out, loc.Region)
	}
	return out
}

// ByRegion returns the locations belonging to region, preserving order.
func (c Catalog) ByRegion(region string) Catalog {
	var out Catalog
	for _, loc := range c {
		if loc.Region == region {
			out = append(out, loc)
		}
	}
	return out
}

// Except returns the locations not belonging to region, preserving order.
func (c Catalog) Except(region string) Catalog {
	var out Catalog
	for _, loc := range c {
		if loc.Region != region {
			out = append(out, loc)
		}
	}
	return out
}

// CloudflareAustralia lists the Australian Cloudflare edge locations.
func CloudflareAustralia() Catalog {
	return Catalog{
		{Name: "Adelaide", Code: "ADL", Region: "Oceania"},
		{Name: "Brisbane", Code: "BNE", Region: "Oceania"},
		{Name: "Melbourne", Code: "MEL", Region: "Oceania"},
		{Name: "Perth", Code: "PER", Region: "Oceania"},
		{Name: "Sydney", Code: "SYD", Region: "Oceania"},
	}
}

// BunnyWorldwide lists the BunnyCDN edge node table grouped by region.
// Source: https://bunny.net/network/
func BunnyWorldwide() Catalog {
	return Catalog{
		{Name: "Sydney, Australia", Code: "SYD", Region: "Oceania"},
		{Name: "Auckland, New Zealand", Code: "AKL", Region: "Oceania"},
		{Name: "Melbourne, Australia", Code: "MEL", Region: "Oceania"},

		{Name: "London, UK", Code: "LON", Region: "Europe"},
		{Name: "Frankfurt, Germany", Code: "FRA", Region: "Europe"},
		{Name: "Paris, France", Code: "PAR", Region: "Europe"},
		{Name: "Amsterdam, Netherlands", Code: "AMS", Region: "Europe"},
		{Name: "Stockholm, Sweden", Code: "STO", Region: "Europe"},
		{Name: "Warsaw, Poland", Code: "WAW", Region: "Europe"},
		{Name: "Madrid, Spain", Code: "MAD", Region: "Europe"},
		{Name: "Prague, Czech Republic", Code: "PRG", Region: "Europe"},
		{Name: "Vienna, Austria", Code: "VIE", Region: "Europe"},
		{Name: "Bucharest, Romania", Code: "BUH", Region: "Europe"},

		{Name: "New York, USA", Code: "NYC", Region: "North America"},
		{Name: "Los Angeles, USA", Code: "LAX", Region: "North America"},
		{Name: "Miami, USA", Code: "MIA", Region: "North America"},
		{Name: "Chicago, USA", Code: "CHI", Region: "North America"},
		{Name: "Dallas, USA", Code: "DAL", Region: "North America"},
		{Name: "Seattle, USA", Code: "SEA", Region: "North America"},
		{Name: "Toronto, Canada", Code: "YTO", Region: "North America"},
		{Name: "Vancouver, Canada", Code: "YVR", Region: "North America"},

		{Name: "Tokyo, Japan", Code: "TYO", Region: "Asia"},
		{Name: "Singapore", Code: "SIN", Region: "Asia"},
		{Name: "Seoul, South Korea", Code: "SEL", Region: "Asia"},
		{Name: "Mumbai, India", Code: "BOM", Region: "Asia"},
		{Name: "Hong Kong", Code: "HKG", Region: "Asia"},
		{Name: "Bangkok, Thailand", Code: "BKK", Region: "Asia"},
		{Name: "Jakarta, Indonesia", Code: "JKT", Region: "Asia"},
		{Name: "Bangalore, India", Code: "BLR", Region: "Asia"},

		{Name: "Sao Paulo, Brazil", Code: "SAO", Region: "South America"},
		{Name: "Santiago, Chile", Code: "SCL", Region: "South America"},
		{Name: "Buenos Aires, Argentina", Code: "BUE", Region: "South America"},

		{Name: "Johannesburg, South Africa", Code: "JNB", Region: "Africa"},
		{Name: "Lagos, Nigeria", Code: "LOS", Region: "Africa"},
		{Name: "Cape Town, South Africa", Code: "CPT", Region: "Africa"},
	}
}

// CatalogByProvider resolves the built-in catalog for a provider name.
// Unknown providers get the Cloudflare Australia set.
func CatalogByProvider(provider string) Catalog {
	switch provider {
	case "bunny":
		return BunnyWorldwide()
	default:
		return CloudflareAustralia()
	}
}
