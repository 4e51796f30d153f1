package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rl1809/laventory/internal/core/domain"
)

const recipePrompt = `Suggest one recipe that can be cooked with the following ingredients: %s.
Only basic pantry staples (salt, pepper, oil, water) may be added.
If no sensible recipe exists, answer with found set to false.`

var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"found": {Type: genai.TypeBoolean, Description: "Whether a recipe was found."},
		"name":  {Type: genai.TypeString, Description: "Name of the recipe."},
		"ingredients": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Ingredients with their amounts.",
		},
		"instructions": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Ordered preparation steps.",
		},
	},
	Required: []string{"found"},
}

type recipeAnswer struct {
	Found        bool     `json:"found"`
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

func (c *Client) Recipe(ctx context.Context, ingredients []string) (*domain.Recipe, error) {
	prompt := fmt.Sprintf(recipePrompt, strings.Join(ingredients, ", "))

	var answer recipeAnswer
	if err := c.generateJSON(ctx, genai.Text(prompt), recipeSchema, &answer); err != nil {
		return nil, err
	}
	if !answer.Found {
		return nil, nil
	}

	return &domain.Recipe{
		Name:         answer.Name,
		Ingredients:  answer.Ingredients,
		Instructions: answer.Instructions,
	}, nil
}
