package models

// Category is one node of the professional-standards taxonomy used to tag
// entries. The set is static reference data and read-only at runtime.
type Category struct {
	ID            string
	Name          string
	Description   string
	RequiredHours float64
}

var categories = []Category{
	{ID: "prioritise-people", Name: "Prioritise people", Description: "Person-centred care, dignity and advocacy", RequiredHours: 5},
	{ID: "practise-effectively", Name: "Practise effectively", Description: "Evidence-based practice, communication and record keeping", RequiredHours: 10},
	{ID: "preserve-safety", Name: "Preserve safety", Description: "Patient safety, raising concerns and competence limits", RequiredHours: 10},
	{ID: "promote-professionalism", Name: "Promote professionalism and trust", Description: "Upholding the reputation of the profession", RequiredHours: 5},
	{ID: "leadership", Name: "Leadership and management", Description: "Supervision, delegation and service improvement", RequiredHours: 5},
}

// Categories returns the full taxonomy. Callers must not mutate the result.
func Categories() []Category {
	return categories
}

// CategoryByID looks up one taxonomy entry.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
