package celcat

import (
	"testing"

	"github.com/corpauration/timetable-sync/internal/model"
)

func labeled(label, content string) SideBarElement {
	return SideBarElement{Label: &label, Content: &content}
}

func continuation(content string) SideBarElement {
	return SideBarElement{Content: &content}
}

func TestParseSideBarBasicFields(t *testing.T) {
	elements := []SideBarElement{
		labeled("Catégorie", "CM"),
		labeled("Matière", "Analyse"),
		labeled("Salle", "A101"),
		labeled("Enseignant", "Doe"),
	}

	details := ParseSideBar(elements, DefaultLabels())
	if details.Category != model.CategoryLecture {
		t.Errorf("category = %v, want LECTURE", details.Category)
	}
	if details.Subject == nil || *details.Subject != "Analyse" {
		t.Errorf("subject = %v, want Analyse", details.Subject)
	}
	if details.Rooms != "A101" {
		t.Errorf("rooms = %q, want A101", details.Rooms)
	}
	if details.Teachers != "Doe" {
		t.Errorf("teachers = %q, want Doe", details.Teachers)
	}
}

func TestParseSideBarContinuations(t *testing.T) {
	elements := []SideBarElement{
		labeled("Salles", "A101"),
		continuation("B202"),
		continuation("C303"),
		labeled("Enseignants", "Doe"),
		continuation("Smith"),
	}

	details := ParseSideBar(elements, DefaultLabels())
	if details.Rooms != "A101,B202,C303" {
		t.Errorf("rooms = %q, want A101,B202,C303", details.Rooms)
	}
	if details.Teachers != "Doe,Smith" {
		t.Errorf("teachers = %q, want Doe,Smith", details.Teachers)
	}
}

func TestParseSideBarContinuationIgnoredForOtherFields(t *testing.T) {
	elements := []SideBarElement{
		labeled("Matière", "Analyse"),
		continuation("ignored tail"),
	}

	details := ParseSideBar(elements, DefaultLabels())
	if details.Subject == nil || *details.Subject != "Analyse" {
		t.Errorf("subject = %v, want Analyse untouched by continuation", details.Subject)
	}
}

func TestParseSideBarLeadingContinuationDropped(t *testing.T) {
	elements := []SideBarElement{
		continuation("stray"),
		labeled("Salle", "A101"),
	}

	details := ParseSideBar(elements, DefaultLabels())
	if details.Rooms != "A101" {
		t.Errorf("rooms = %q, want A101", details.Rooms)
	}
}

func TestParseSideBarUnknownLabelIgnored(t *testing.T) {
	elements := []SideBarElement{
		labeled("Remarques", "bring a laptop"),
		continuation("second line"),
		labeled("Salle", "A101"),
	}

	details := ParseSideBar(elements, DefaultLabels())
	if details.Rooms != "A101" {
		t.Errorf("rooms = %q, want A101", details.Rooms)
	}
	if details.Subject != nil {
		t.Errorf("subject = %v, want nil", details.Subject)
	}
}

func TestParseSideBarCategories(t *testing.T) {
	tests := []struct {
		content string
		want    model.CourseCategory
	}{
		{"CM", model.CategoryLecture},
		{"TD", model.CategoryTutorial},
		{"Accueil", model.CategoryWelcome},
		{"Examens", model.CategoryExam},
		{"Indisponibilité", model.CategoryUnavailable},
		{"Réunions", model.CategoryMeeting},
		{"Manifestation", model.CategoryEvent},
		{"Projet encadré/Projet tutoré", model.CategorySupervisedProject},
		{"something else", model.CategoryDefault},
	}

	for _, tt := range tests {
		details := ParseSideBar([]SideBarElement{labeled("Catégorie", tt.content)}, DefaultLabels())
		if details.Category != tt.want {
			t.Errorf("category for %q = %v, want %v", tt.content, details.Category, tt.want)
		}
	}
}

func TestParseSideBarEmpty(t *testing.T) {
	details := ParseSideBar(nil, DefaultLabels())
	if details.Category != model.CategoryDefault || details.Subject != nil || details.Rooms != "" || details.Teachers != "" {
		t.Errorf("details = %+v, want zero values", details)
	}
}
