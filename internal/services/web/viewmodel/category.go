package viewmodel

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/louisbranch/giving.space/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const otherCategoryKey = "category.other"

// knownCategories maps the fixed category ids to their catalog label keys.
var knownCategories = map[uuid.UUID]string{
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440001"): "category.food",
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440002"): "category.shelter",
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440003"): "category.health",
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440004"): "category.education",
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440005"): "category.water",
	uuid.MustParse("550e8400-e29b-41d4-a716-446655440006"): "category.emergency",
}

// RawCategories is the payload of GET /categories.
type RawCategories struct {
	Result []RawCategory `json:"result"`
}

// RawCategory is one category as sent by the remote API.
type RawCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Category is one selectable donation category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TransformCategories maps the category list, filling blank names from the
// known table and ordering by name. The result is never nil.
func TransformCategories(raw RawCategories) []Category {
	out := make([]Category, 0, len(raw.Result))
	for _, item := range raw.Result {
		id := normalizeCategoryID(item.ID)
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = GetCategoryName(id)
		}
		out = append(out, Category{
			ID:          id,
			Name:        name,
			Description: strings.TrimSpace(item.Description),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetCategoryName returns the base-locale label for a category id, or "Otra"
// when the id is unknown or malformed.
func GetCategoryName(id string) string {
	label, _ := catalog.Default().Message(catalog.BaseLocale, categoryKey(id))
	return label
}

// LocalizedCategoryName returns the category label for the closest locale to tag.
func LocalizedCategoryName(tag language.Tag, id string) string {
	key := categoryKey(id)
	return catalog.Default().Printer(tag).Sprintf(message.Key(key, GetCategoryName(id)))
}

func categoryKey(id string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return otherCategoryKey
	}
	if key, ok := knownCategories[parsed]; ok {
		return key
	}
	return otherCategoryKey
}

// normalizeCategoryID returns the canonical lowercase form of a UUID id and
// leaves non-UUID ids trimmed but otherwise untouched.
func normalizeCategoryID(id string) string {
	id = strings.TrimSpace(id)
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}
