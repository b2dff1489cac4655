package models

// Repo is one public repository as shown on the projects page.
type Repo struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	URL         string   `json:"url"`
	Languages   []string `json:"languages"`
}
