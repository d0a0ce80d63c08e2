package environment

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TypeMarineLife tags marine hotspot features
const TypeMarineLife = "marine_life"

// Species is a fish stock found at a hotspot
type Species struct {
	Name      string `json:"name"`
	Abundance string `json:"abundance"`
}

type hotspot struct {
	region  string
	point   orb.Point
	species []Species
}

var hotspots = []hotspot{
	{"Central Pacific", orb.Point{-150, 10}, []Species{{"Yellowfin Tuna", "High"}, {"Skipjack Tuna", "High"}, {"Bigeye Tuna", "Medium"}}},
	{"Eastern Pacific", orb.Point{-120, -5}, []Species{{"Skipjack Tuna", "High"}, {"Yellowfin Tuna", "Medium"}}},
	{"Western Pacific", orb.Point{160, 15}, []Species{{"Yellowfin Tuna", "High"}, {"Bigeye Tuna", "High"}}},
	{"North Atlantic", orb.Point{-20, 52}, []Species{{"Atlantic Cod", "Medium"}, {"Atlantic Herring", "High"}, {"Mackerel", "Medium"}}},
	{"Labrador Sea", orb.Point{-35, 60}, []Species{{"Atlantic Cod", "Medium"}, {"Greenland Halibut", "Medium"}}},
	{"Gulf of Alaska", orb.Point{-160, 55}, []Species{{"Pacific Salmon", "High"}, {"Pollock", "High"}}},
	{"Sea of Okhotsk", orb.Point{155, 50}, []Species{{"Pacific Salmon", "High"}, {"Herring", "Medium"}}},
	{"Western Indian Ocean", orb.Point{70, -10}, []Species{{"Skipjack Tuna", "High"}, {"Yellowfin Tuna", "Medium"}}},
	{"Central Indian Ocean", orb.Point{85, 5}, []Species{{"Bigeye Tuna", "Medium"}, {"Skipjack Tuna", "High"}}},
	{"South Atlantic", orb.Point{-40, -30}, []Species{{"Sardine", "Medium"}, {"Anchovy", "Medium"}}},
	{"Peru Current", orb.Point{-80, -10}, []Species{{"Peruvian Anchoveta", "High"}, {"Sardine", "Medium"}}},
	{"Benguela Current", orb.Point{5, -20}, []Species{{"Sardine", "High"}, {"Horse Mackerel", "Medium"}}},
	{"Coral Triangle", orb.Point{125, 0}, []Species{{"Reef Fish (Various)", "High"}, {"Skipjack Tuna", "High"}}},
	{"Arabian Sea", orb.Point{62, 15}, []Species{{"Sardine", "High"}, {"Mackerel", "Medium"}}},
	{"Bay of Bengal", orb.Point{90, 15}, []Species{{"Hilsa", "High"}, {"Mackerel", "Medium"}}},
	{"Central Mediterranean", orb.Point{18, 35}, []Species{{"European Anchovy", "Medium"}, {"Sardine", "Medium"}}},
	{"Tasman Sea", orb.Point{160, -40}, []Species{{"Hoki", "Medium"}, {"Jack Mackerel", "Medium"}}},
}

const defaultPhoto = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcR9OR-P1c307t14sfkM6z3duPzyqnFZiCD8VA&s"

var speciesPhotos = map[string]string{
	"Yellowfin Tuna":      "https://commons.wikimedia.org/wiki/Special:FilePath/Thunnus_albacares.png",
	"Skipjack Tuna":       "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcSFc-v2ZAOluyw4spXq1X_i_e44utA61RaMbA&s",
	"Bigeye Tuna":         "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcROcpiWLQGhimfsIF1yqBzSHHpYnouxwuDmHA&s",
	"Atlantic Cod":        "https://www.thefisherman.com/wp-content/uploads/2019/04/2019-2-profiling-the-atlantic-cod-cod.jpg",
	"Atlantic Herring":    "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcSHJ89uy7S3QrlJvUq2XyVuQuN6FSdedxG7TA&s",
	"Mackerel":            "https://cdn.prod.website-files.com/64c871291cf9e6192ef11f7a/66690d54c03c6364c72eb21b_Spanish%20Mackerel%20Species%20Guide_hero%20banner_2880x1800.jpg",
	"Greenland Halibut":   "https://natur.gl/wp-content/uploads/2019/02/hellefisk_UPN_UMM_2008_BJL_01.jpg",
	"Pacific Salmon":      "https://insideclimatenews.org/wp-content/uploads/2019/07/sockeye-salmon-900_mark-conlin-vw-pics-uig-via-getty.jpg",
	"Pollock":             "https://www.deepseaworld.com/wp-content/uploads/2020/08/pollock-scaled.jpg",
	"Herring":             "https://farm66.staticflickr.com/65535/48995918528_6f10f7475f_b.jpg",
	"Sardine":             "https://www.fisheries.noaa.gov/s3//styles/original/s3/2022-09/640x427-Sardine-Pacific-NOAAFisheries.png?itok=LoZ4D4ym",
	"Anchovy":             "https://www.cento.com/images/articles/anchovies/anchovy_stock.jpg",
	"Peruvian Anchoveta":  "https://www.worldlifeexpectancy.com/images/a/w/b/engraulis-japonicus/engraulis-japonicus.webp",
	"Horse Mackerel":      "https://a-z-animals.com/media/2022/10/Yellowfin-Horse-Mackerel.jpg",
	"Reef Fish (Various)": "https://cdn.shopify.com/s/files/1/0024/1788/5284/files/moorish-idol.jpg",
	"Hilsa":               "https://i.dawn.com/primary/2023/08/22120827858e60e.gif",
	"European Anchovy":    "https://upload.wikimedia.org/wikipedia/commons/thumb/0/0f/Anchovy_closeup.jpg/960px-Anchovy_closeup.jpg",
	"Hoki":                "https://dzpdbgwih7u1r.cloudfront.net/96a712f9-ffe1-4b13-b47a-d727d6df84f5/9c44bb5f-4f13-4695-8fde-12ee99184cf2/9c44bb5f-51a9-4e6c-980e-a8ed5ad5e864/w1200h406-b9ede379f02398c6b0f7fda3806c301e.png",
	"Jack Mackerel":       "https://caseagrant.ucsd.edu/sites/default/files/styles/800px/public/importedFiles/pacific-jack-mackeral-roberson-2.jpg?itok=0HrVZMgI",
}

// PhotoURL returns a picture for the species, or a generic one
func PhotoURL(species string) string {
	if url, ok := speciesPhotos[species]; ok {
		return url
	}
	return defaultPhoto
}

// MarineLife returns three to six jittered points per hotspot, each naming
// one of the hotspot's species as its main stock
func (g *Generator) MarineLife() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	stamp := g.clock.Now().UTC().Format(time.RFC3339)

	for idx, h := range hotspots {
		count := 3 + g.rng.IntN(4)
		for i := 0; i < count; i++ {
			// up to 2.5 degrees either way
			point := orb.Point{
				h.point.Lon() + (g.rng.Float64()-0.5)*5,
				h.point.Lat() + (g.rng.Float64()-0.5)*5,
			}
			chosen := h.species[g.rng.IntN(len(h.species))]

			f := geojson.NewFeature(point)
			f.Properties["id"] = "marine_" + strconv.Itoa(idx) + "_" + strconv.Itoa(i)
			f.Properties["region"] = h.region
			f.Properties["mainSpecies"] = chosen.Name
			f.Properties["abundance"] = chosen.Abundance
			f.Properties["speciesMix"] = h.species
			f.Properties["biomassIndex"] = 50 + g.rng.IntN(450)
			f.Properties["confidence"] = 70 + g.rng.IntN(25)
			f.Properties["timestamp"] = stamp
			f.Properties["type"] = TypeMarineLife
			f.Properties["photoUrl"] = PhotoURL(chosen.Name)
			fc.Append(f)
		}
	}
	return fc
}

// FilterBySpecies keeps features whose main species or species mix contains
// query, case-insensitively. An empty query keeps everything.
func FilterBySpecies(fc *geojson.FeatureCollection, query string) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	q := strings.ToLower(query)
	for _, f := range fc.Features {
		if q == "" || matchesSpecies(f, q) {
			out.Append(f)
		}
	}
	return out
}

func matchesSpecies(f *geojson.Feature, q string) bool {
	if strings.Contains(strings.ToLower(f.Properties.MustString("mainSpecies", "")), q) {
		return true
	}
	mix, _ := f.Properties["speciesMix"].([]Species)
	for _, s := range mix {
		if strings.Contains(strings.ToLower(s.Name), q) {
			return true
		}
	}
	return false
}

type SpeciesCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MarineStatistics struct {
	TotalPoints         int            `json:"total_points"`
	TopSpecies          []SpeciesCount `json:"topSpecies"`
	AverageBiomassIndex int            `json:"average_biomass_index"`
	AverageConfidence   int            `json:"average_confidence"`
}

// SummarizeMarine counts main species (ten most frequent, ties in order of
// first appearance) and averages biomass and confidence
func SummarizeMarine(fc *geojson.FeatureCollection) MarineStatistics {
	stats := MarineStatistics{TotalPoints: len(fc.Features), TopSpecies: []SpeciesCount{}}

	index := make(map[string]int)
	biomass, confidence := 0, 0
	for _, f := range fc.Features {
		name := f.Properties.MustString("mainSpecies", "")
		if i, ok := index[name]; ok {
			stats.TopSpecies[i].Count++
		} else {
			index[name] = len(stats.TopSpecies)
			stats.TopSpecies = append(stats.TopSpecies, SpeciesCount{Name: name, Count: 1})
		}
		biomass += f.Properties.MustInt("biomassIndex", 0)
		confidence += f.Properties.MustInt("confidence", 0)
	}

	sort.SliceStable(stats.TopSpecies, func(i, j int) bool {
		return stats.TopSpecies[i].Count > stats.TopSpecies[j].Count
	})
	if len(stats.TopSpecies) > 10 {
		stats.TopSpecies = stats.TopSpecies[:10]
	}

	if stats.TotalPoints > 0 {
		n := float64(stats.TotalPoints)
		stats.AverageBiomassIndex = int(math.Round(float64(biomass) / n))
		stats.AverageConfidence = int(math.Round(float64(confidence) / n))
	}
	return stats
}
