package domain

import (
	"fmt"
	"strings"
)

type Recipe struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

func (r *Recipe) Valid() bool {
	return r != nil && strings.TrimSpace(r.Name) != "" && len(r.Instructions) > 0
}

// Markdown renders the recipe as a small markdown document.
func (r *Recipe) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Name)

	b.WriteString("## Ingredients\n\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}

	b.WriteString("\n## Instructions\n\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}
