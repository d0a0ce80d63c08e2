package config

// City is a named market with a known price premium and appreciation rate
type City struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Growth     float64 `json:"growth"`
}

// KnownCities is the list of markets the pricing model recognises by name.
// Order is the order reported by the model status endpoint.
var KnownCities = []City{
	{Name: "Los Angeles", Multiplier: 2.5, Growth: 0.04},
	{Name: "New York", Multiplier: 3.0, Growth: 0.035},
	{Name: "San Francisco", Multiplier: 2.8, Growth: 0.045},
	{Name: "Chicago", Multiplier: 1.8, Growth: 0.025},
	{Name: "Miami", Multiplier: 1.9, Growth: 0.03},
	{Name: "Seattle", Multiplier: 2.2, Growth: 0.035},
	{Name: "Austin", Multiplier: 1.6, Growth: 0.04},
	{Name: "Denver", Multiplier: 1.7, Growth: 0.03},
	{Name: "Boston", Multiplier: 2.3, Growth: 0.035},
	{Name: "Portland", Multiplier: 1.9, Growth: 0.03},
}

// GetCityNames returns the names of all known cities
func GetCityNames() []string {
	names := make([]string, len(KnownCities))
	for i, city := range KnownCities {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city by its exact, case-sensitive name
func GetCityByName(name string) *City {
	for _, city := range KnownCities {
		if city.Name == name {
			return &city
		}
	}
	return nil
}
