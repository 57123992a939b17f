package celcat

import (
	"strings"

	"github.com/corpauration/timetable-sync/internal/model"
)

// Labels maps the provider's side panel label texts onto course fields. The
// texts are locale-specific provider data, so they live in configuration;
// DefaultLabels covers the French deployment.
type Labels struct {
	Category   string
	Subject    string
	Rooms      []string
	Teachers   []string
	Categories map[string]model.CourseCategory
}

func DefaultLabels() Labels {
	return Labels{
		Category: "Catégorie",
		Subject:  "Matière",
		Rooms:    []string{"Salle", "Salles"},
		Teachers: []string{"Enseignant", "Enseignants"},
		Categories: map[string]model.CourseCategory{
			"CM":                          model.CategoryLecture,
			"TD":                          model.CategoryTutorial,
			"Accueil":                     model.CategoryWelcome,
			"Examens":                     model.CategoryExam,
			"Indisponibilité":             model.CategoryUnavailable,
			"Réunions":                    model.CategoryMeeting,
			"Manifestation":               model.CategoryEvent,
			"Projet encadré/Projet tutoré": model.CategorySupervisedProject,
		},
	}
}

// EventDetails is the normalized metadata tuple extracted from a side panel.
type EventDetails struct {
	Category model.CourseCategory
	Subject  *string
	Rooms    string
	Teachers string
}

// ParseSideBar walks the ordered side panel elements. A labeled element
// selects the field it names and becomes the carry-over target; an unlabeled
// element continues that target, appending comma-joined for the rooms and
// teachers fields and being ignored everywhere else. Unrecognized labels are
// skipped.
func ParseSideBar(elements []SideBarElement, labels Labels) EventDetails {
	details := EventDetails{Category: model.CategoryDefault}

	var current *SideBarElement
	for i := range elements {
		el := &elements[i]
		if el.Label != nil {
			current = el
		}

		content := ""
		if el.Content != nil {
			content = *el.Content
		}

		switch {
		case el.Label == nil:
			if current == nil || current.Label == nil {
				continue
			}
			switch {
			case contains(labels.Rooms, *current.Label):
				details.Rooms = appendJoined(details.Rooms, content)
			case contains(labels.Teachers, *current.Label):
				details.Teachers = appendJoined(details.Teachers, content)
			}
		case *el.Label == labels.Category:
			if cat, ok := labels.Categories[content]; ok {
				details.Category = cat
			} else {
				details.Category = model.CategoryDefault
			}
		case *el.Label == labels.Subject:
			subject := content
			details.Subject = &subject
		case contains(labels.Rooms, *el.Label):
			details.Rooms = content
		case contains(labels.Teachers, *el.Label):
			details.Teachers = content
		}
	}
	return details
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func appendJoined(existing, content string) string {
	if existing == "" {
		return content
	}
	return existing + "," + strings.TrimSpace(content)
}
