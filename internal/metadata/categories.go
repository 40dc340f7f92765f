package metadata

import (
	"sort"
	"strings"

	"github.com/raine/stock-metadata/internal/prompt"
)

const (
	// DefaultVideoCategory is "Graphic Resources".
	DefaultVideoCategory = 8

	titleWeight           = 3
	graphicResourceBonus  = 5
	maxPlatformCategories = 2
)

// videoCategoryTerms holds the scoring terms for each video category; index
// i belongs to category i+1.
var videoCategoryTerms = [][]string{
	{"animal", "dog", "cat", "bird", "wildlife", "pet", "horse", "fish", "insect", "zoo"},
	{"building", "architecture", "house", "skyscraper", "bridge", "interior", "facade", "tower", "church", "city"},
	{"business", "office", "meeting", "finance", "money", "corporate", "startup", "teamwork", "marketing", "laptop"},
	{"drink", "coffee", "tea", "wine", "beer", "juice", "cocktail", "water", "beverage", "milk"},
	{"environment", "climate", "pollution", "recycling", "ecology", "sustainable", "green energy", "solar", "wind turbine", "earth"},
	{"emotion", "happy", "sad", "stress", "calm", "love", "anxiety", "joy", "lonely", "relax"},
	{"food", "meal", "cooking", "fruit", "vegetable", "bread", "dessert", "restaurant", "kitchen", "breakfast"},
	{"background", "texture", "pattern", "abstract", "graphic", "gradient", "overlay", "particles", "bokeh", "loop"},
	{"hobby", "leisure", "game", "music", "reading", "painting", "camping", "fishing", "gardening", "craft"},
	{"industry", "factory", "manufacturing", "machine", "construction", "warehouse", "engineering", "worker", "steel", "oil"},
	{"landscape", "mountain", "sea", "ocean", "beach", "forest", "sunset", "sunrise", "lake", "desert"},
	{"lifestyle", "home", "family", "fashion", "shopping", "fitness", "morning", "weekend", "friends", "routine"},
	{"people", "man", "woman", "child", "portrait", "person", "crowd", "girl", "boy", "senior"},
	{"plant", "flower", "tree", "leaf", "garden", "rose", "blossom", "grass", "botanical", "tulip"},
	{"culture", "religion", "tradition", "festival", "temple", "ceremony", "prayer", "celebration", "heritage", "mosque"},
	{"science", "laboratory", "research", "microscope", "chemistry", "biology", "experiment", "dna", "medical", "space"},
	{"social", "protest", "poverty", "equality", "diversity", "homeless", "refugee", "charity", "volunteer", "community"},
	{"sport", "football", "soccer", "basketball", "tennis", "running", "gym", "athlete", "yoga", "cycling"},
	{"technology", "computer", "digital", "smartphone", "data", "network", "robot", "code", "cyber", "innovation"},
	{"transport", "car", "train", "airplane", "bus", "truck", "traffic", "ship", "bicycle", "road"},
	{"travel", "tourism", "vacation", "holiday", "journey", "adventure", "landmark", "hotel", "passport", "destination"},
}

// ResolveVideoCategory returns the model's claimed category when it is in
// range, otherwise the best keyword-scored category, otherwise 8.
func ResolveVideoCategory(claimed int, title, description string, keywords []string) int {
	if claimed >= 1 && claimed <= len(videoCategoryTerms) {
		return claimed
	}
	return ScoreVideoCategory(title, description, keywords)
}

// ScoreVideoCategory scores each category by term hits. Title hits count
// three times. Graphic Resources gets a +5 bonus when background, texture,
// pattern or abstract terms appear anywhere.
func ScoreVideoCategory(title, description string, keywords []string) int {
	title = strings.ToLower(title)
	body := strings.ToLower(description + " " + strings.Join(keywords, " "))
	all := title + " " + body

	best, bestScore := DefaultVideoCategory, 0
	for i, terms := range videoCategoryTerms {
		id := i + 1
		score := 0
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += titleWeight
			}
			if strings.Contains(body, term) {
				score++
			}
		}
		if id == DefaultVideoCategory {
			for _, term := range []string{"background", "texture", "pattern", "abstract"} {
				if strings.Contains(all, term) {
					score += graphicResourceBonus
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

type platformCategory struct {
	label string
	terms []string
}

type platformTaxonomy struct {
	categories []platformCategory
	fallback   string
}

var platformTaxonomies = map[prompt.PlatformGroup]platformTaxonomy{
	prompt.GroupShutterstock: {
		categories: []platformCategory{
			{"Nature", []string{"nature", "landscape", "forest", "mountain", "flower", "tree", "sky", "sea", "beach", "sunset"}},
			{"People", []string{"people", "man", "woman", "child", "portrait", "person", "family", "girl", "boy", "team"}},
			{"Business/Finance", []string{"business", "office", "finance", "money", "meeting", "corporate", "work", "bank", "chart", "laptop"}},
			{"Animals/Wildlife", []string{"animal", "dog", "cat", "bird", "wildlife", "pet", "horse", "fish", "insect", "zoo"}},
			{"Backgrounds/Textures", []string{"background", "texture", "pattern", "abstract", "wallpaper", "gradient", "seamless", "surface", "paper", "grunge"}},
		},
		fallback: "Objects",
	},
	prompt.GroupAdobeStock: {
		categories: []platformCategory{
			{"Landscapes", []string{"landscape", "mountain", "forest", "beach", "sea", "sunset", "nature", "lake", "sky", "field"}},
			{"People", []string{"people", "man", "woman", "child", "portrait", "person", "family", "girl", "boy", "crowd"}},
			{"Business", []string{"business", "office", "finance", "money", "meeting", "corporate", "work", "startup", "chart", "laptop"}},
			{"Animals", []string{"animal", "dog", "cat", "bird", "wildlife", "pet", "horse", "fish", "insect", "zoo"}},
			{"Graphic Resources", []string{"background", "texture", "pattern", "abstract", "icon", "vector", "illustration", "design", "template", "banner"}},
		},
		fallback: "Graphic Resources",
	},
}

// SuggestCategories picks up to two platform categories by matching the
// title and keywords against the platform taxonomy, falling back to the
// platform default. Groups without a taxonomy get nil.
func SuggestCategories(group prompt.PlatformGroup, title string, keywords []string) []string {
	tax, ok := platformTaxonomies[group]
	if !ok {
		return nil
	}

	text := strings.ToLower(title + " " + strings.Join(keywords, " "))

	type scored struct {
		label string
		score int
	}
	var matches []scored
	for _, cat := range tax.categories {
		score := 0
		for _, term := range cat.terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{label: cat.label, score: score})
		}
	}
	if len(matches) == 0 {
		return []string{tax.fallback}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	var labels []string
	for _, m := range matches {
		labels = append(labels, m.label)
		if len(labels) == maxPlatformCategories {
			break
		}
	}
	return labels
}
