package viewmodel

import (
	"github.com/louisbranch/giving.space/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	highUrgencyThreshold   = 8
	mediumUrgencyThreshold = 5
)

// GetUrgencyLevel labels a numeric urgency: 8 and above is "Alta", 5 to 7 is
// "Media", anything lower is "Baja".
func GetUrgencyLevel(level int) string {
	label, _ := catalog.Default().Message(catalog.BaseLocale, urgencyKey(level))
	return label
}

// LocalizedUrgencyLevel labels a numeric urgency for the closest locale to tag.
func LocalizedUrgencyLevel(tag language.Tag, level int) string {
	return catalog.Default().Printer(tag).Sprintf(message.Key(urgencyKey(level), GetUrgencyLevel(level)))
}

func urgencyKey(level int) string {
	switch {
	case level >= highUrgencyThreshold:
		return "urgency.high"
	case level >= mediumUrgencyThreshold:
		return "urgency.medium"
	default:
		return "urgency.low"
	}
}
