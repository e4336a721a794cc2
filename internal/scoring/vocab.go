package scoring

// Category identifies one preference category the engine recognizes.
type Category string

const (
	CategoryTitle    Category = "title"
	CategoryLocation Category = "location"
	CategorySalary   Category = "salary"
	CategoryRemote   Category = "remote"
	CategorySkills   Category = "skills"
)

// Categories lists every recognized category in evaluation order. The order
// is fixed so matched-keyword output stays deterministic.
var Categories = []Category{
	CategoryTitle,
	CategoryLocation,
	CategorySalary,
	CategoryRemote,
	CategorySkills,
}

// SkillTerms is the free-form skills vocabulary. Matching is
// case-insensitive and bounded on word edges for Latin-script terms.
var SkillTerms = []string{
	"python", "go", "golang", "java", "javascript", "typescript", "ruby",
	"php", "rust", "kotlin", "swift", "c++", "c#", "sql", "react", "vue",
	"node", "django", "rails", "spring", "aws", "gcp", "azure", "docker",
	"kubernetes", "terraform", "linux", "machine learning", "data analysis",
	"photoshop", "illustrator", "figma", "sketch", "ui design", "ux",
	"marketing", "sales", "accounting", "management", "leadership",
}

// RemoteTerms signal a work-style preference in conversation text.
var RemoteTerms = []string{
	"remote", "work from home", "hybrid", "in office", "on-site",
	"リモート", "在宅", "出社",
}

// SalaryTerms signal compensation talk in conversation text.
var SalaryTerms = []string{
	"salary", "compensation", "annual income", "million", "yen",
	"年収", "万円", "給与",
}

// vocabularyFor returns the free-form terms associated with a category.
// Title and location have no fixed vocabulary; they match on the preference
// value itself.
func vocabularyFor(c Category) []string {
	switch c {
	case CategorySkills:
		return SkillTerms
	case CategoryRemote:
		return RemoteTerms
	case CategorySalary:
		return SalaryTerms
	default:
		return nil
	}
}
