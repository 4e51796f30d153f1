package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/rl1809/laventory/internal/core/domain"
)

const detectPrompt = `List the distinct household items or food products visible in this picture.
Use short lowercase common names and a confidence score between 0 and 1.`

var detectionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString},
			"score": {Type: genai.TypeNumber},
		},
		Required: []string{"label", "score"},
	},
}

func (c *Client) Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Detection, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: detectPrompt},
			{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
		},
	}}

	var detections []domain.Detection
	if err := c.generateJSON(ctx, contents, detectionSchema, &detections); err != nil {
		return nil, err
	}
	return detections, nil
}
