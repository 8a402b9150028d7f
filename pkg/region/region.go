package region

// Region is one of Ghana's administrative regions.
type Region struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Capital    string `json:"capital"`
	Population int    `json:"population"`
}

var all = []Region{
	{Name: "Greater Accra", Code: "GAR", Capital: "Accra", Population: 5055883},
	{Name: "Ashanti", Code: "ASH", Capital: "Kumasi", Population: 6030030},
	{Name: "Western", Code: "WES", Capital: "Sekondi-Takoradi", Population: 2658774},
	{Name: "Eastern", Code: "EAS", Capital: "Koforidua", Population: 2917039},
	{Name: "Central", Code: "CEN", Capital: "Cape Coast", Population: 2563228},
	{Name: "Volta", Code: "VOL", Capital: "Ho", Population: 1635421},
	{Name: "Oti", Code: "OTI", Capital: "Dambai", Population: 735432},
	{Name: "Northern", Code: "NOR", Capital: "Tamale", Population: 2046696},
	{Name: "North East", Code: "NEA", Capital: "Nalerigu", Population: 535967},
	{Name: "Savannah", Code: "SAV", Capital: "Damongo", Population: 583933},
	{Name: "Upper East", Code: "UEA", Capital: "Bolgatanga", Population: 1241998},
	{Name: "Upper West", Code: "UWE", Capital: "Wa", Population: 859679},
	{Name: "Bono", Code: "BON", Capital: "Sunyani", Population: 1179079},
	{Name: "Bono East", Code: "BEA", Capital: "Techiman", Population: 1170301},
	{Name: "Ahafo", Code: "AHA", Capital: "Goaso", Population: 553636},
	{Name: "Western North", Code: "WNO", Capital: "Sefwi Wiawso", Population: 819984},
}

var byName = func() map[string]Region {
	m := make(map[string]Region, len(all))
	for _, r := range all {
		m[r.Name] = r
	}
	return m
}()

// All returns the regions in their canonical order.
func All() []Region {
	out := make([]Region, len(all))
	copy(out, all)
	return out
}

// Names returns the region names in canonical order.
func Names() []string {
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}

func IsValid(name string) bool {
	_, ok := byName[name]
	return ok
}

func Lookup(name string) (Region, bool) {
	r, ok := byName[name]
	return r, ok
}
