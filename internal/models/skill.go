package models

type CardType string

const (
	CardLanguage   CardType = "language"
	CardLibrary    CardType = "library"
	CardFramework  CardType = "framework"
	CardTechnology CardType = "technology"
)

// Card is one entry of the skills catalog.
type Card struct {
	Title       string   `json:"title" yaml:"title"`
	Type        CardType `json:"type" yaml:"type"`
	Image       string   `json:"image" yaml:"image"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Skills groups catalog cards by bucket. Libraries and frameworks share a
// bucket; cards of any other type are not represented.
type Skills struct {
	Languages    []Card `json:"languages"`
	Frameworks   []Card `json:"frameworks"`
	Technologies []Card `json:"technologies"`
}
