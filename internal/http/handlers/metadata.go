package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	serviceName        = "image-generation-relay"
	serviceVersion     = "1.0.0"
	serviceDescription = "Generates images from text prompts through the OpenAI images API and streams progress over Server-Sent Events."
	toolName           = "generate_image"
	toolDescription    = "Generate one or more images from a text prompt. Returns image URLs or base64 data together with the prompt and size used."
)

// Field order below is part of the public contract; agent clients parse it.
type toolProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

type toolProperties struct {
	Prompt     toolProperty `json:"prompt"`
	Size       toolProperty `json:"size"`
	Background toolProperty `json:"background"`
	N          toolProperty `json:"n"`
}

type toolInputSchema struct {
	Type       string         `json:"type"`
	Properties toolProperties `json:"properties"`
	Required   []string       `json:"required"`
}

type toolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema toolInputSchema `json:"inputSchema"`
}

type metadataDocument struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Tools       []toolDescriptor `json:"tools"`
}

func metadata() metadataDocument {
	return metadataDocument{
		Name:        serviceName,
		Version:     serviceVersion,
		Description: serviceDescription,
		Tools: []toolDescriptor{{
			Name:        toolName,
			Description: toolDescription,
			InputSchema: toolInputSchema{
				Type: "object",
				Properties: toolProperties{
					Prompt: toolProperty{
						Type:        "string",
						Description: "Text description of the image to generate.",
					},
					Size: toolProperty{
						Type:        "string",
						Description: "Image resolution.",
						Enum:        []string{"1024x1024", "1024x1536", "1536x1024"},
						Default:     "1024x1024",
					},
					Background: toolProperty{
						Type:        "string",
						Description: "Background handling for the generated image.",
						Enum:        []string{"auto", "transparent", "opaque"},
						Default:     "auto",
					},
					N: toolProperty{
						Type:        "integer",
						Description: "Number of images to generate.",
						Default:     1,
					},
				},
				Required: []string{"prompt"},
			},
		}},
	}
}

func mustEncodeMetadata() []byte {
	b, err := json.Marshal(metadata())
	if err != nil {
		panic(err)
	}
	return append(b, '\n')
}

// Metadata serves the static tool descriptor. The bytes are encoded once so
// every response is identical.
func (a *App) Metadata(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.metadata)
}
