package seed

import (
	"math/rand"
	"strconv"
	"time"

	"dmars/models"
	"dmars/utils"
)

// Fixed vocabulary for generated listings. Names are adjective+noun+TLD;
// collisions get a numeric disambiguator, so any n stays unique.
var (
	adjectives = []string{
		"swift", "bright", "prime", "nova", "quantum", "cloud", "smart",
		"rapid", "lunar", "solid", "vivid", "hyper", "metro", "zen",
		"alpha", "blue", "crisp", "deep", "echo", "fresh",
	}
	nouns = []string{
		"market", "vault", "forge", "labs", "pay", "cart", "desk",
		"flow", "grid", "hub", "lane", "mind", "nest", "port",
		"pulse", "quest", "stack", "trail", "wave", "works",
	}
	tlds       = []string{".com", ".io", ".ai", ".net", ".co", ".app"}
	categories = []string{
		"tech", "finance", "health", "travel", "food",
		"education", "legal", "retail",
	}
)

// seedEpoch anchors generated timestamps so two runs with the same inputs
// produce identical records.
var seedEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generate returns n sample listings drawn from a generator seeded with
// seed. Same (n, seed) in, same records out.
func Generate(n int, seed int64) []*models.Domain {
	rng := rand.New(rand.NewSource(seed))

	seen := make(map[string]bool, n)
	domains := make([]*models.Domain, 0, n)
	for len(domains) < n {
		name := pick(rng, adjectives) + pick(rng, nouns)
		tld := pick(rng, tlds)
		full := name + tld
		if seen[full] {
			full = name + strconv.Itoa(len(domains)) + tld
		}
		seen[full] = true

		views := int64(rng.ExpFloat64() * 800)
		if views > 50000 {
			views = 50000
		}
		ctr := 0.01 + rng.Float64()*0.15
		created := seedEpoch.Add(time.Duration(rng.Intn(90*24)) * time.Hour)

		domains = append(domains, &models.Domain{
			DomainName:   full,
			Category:     pick(rng, categories),
			Price:        price(rng),
			KeywordScore: keywordScore(rng),
			Views:        views,
			Clicks:       int64(float64(views) * ctr),
			IsSold:       rng.Float64() < 0.25,
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}
	return domains
}

// price spreads listings across the low/mid/high bands: roughly 40% under
// 1000, 40% in the middle, 20% premium.
func price(rng *rand.Rand) float64 {
	switch b := rng.Float64(); {
	case b < 0.4:
		return utils.Round2(50 + rng.Float64()*950)
	case b < 0.8:
		return utils.Round2(1000 + rng.Float64()*9000)
	default:
		return utils.Round2(10000 + rng.Float64()*90000)
	}
}

// keywordScore is normally distributed around 55 and clipped to [5, 95].
func keywordScore(rng *rand.Rand) float64 {
	s := 55 + rng.NormFloat64()*18
	if s < 5 {
		s = 5
	}
	if s > 95 {
		s = 95
	}
	return utils.Round2(s)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
