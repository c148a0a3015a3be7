// Package openaiimage provides OpenAIImage, a TextToImage module backed by
// the OpenAI image generation API. Loading it requires the services
// permission.
package openaiimage

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "OpenAIImage"

// Generator wraps the OpenAI images API behind the TextToImage task.
type Generator struct {
	client openai.Client
	model  openai.ImageModel
	size   openai.ImageGenerateParamsSize
}

// New constructs the module. Config keys: api_key (string, defaults to the
// environment), model (string, default dall-e-3), size (string, default
// 1024x1024).
func New(cfg core.Config) (core.Module, error) {
	var clientOpts []option.RequestOption
	if key := cfg.String("api_key", ""); key != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(key))
	}
	return &Generator{
		client: openai.NewClient(clientOpts...),
		model:  openai.ImageModel(cfg.String("model", string(openai.ImageModelDallE3))),
		size:   openai.ImageGenerateParamsSize(cfg.String("size", "1024x1024")),
	}, nil
}

// Manifest declares OpenAIImage to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:             Name,
		Doc:              "Image generation backed by the OpenAI images API.",
		Tasks:            []string{task.TextToImage.Name},
		Actions:          []string{"text_to_image", core.CallOperator},
		RequiresServices: true,
		New:              New,
	}
}

// Name implements core.Module.
func (g *Generator) Name() string { return Name }

// Actions implements core.Module.
func (g *Generator) Actions() map[string]core.ActionFunc {
	return map[string]core.ActionFunc{
		"text_to_image":   g.textToImage,
		core.CallOperator: g.textToImage,
	}
}

// textToImage returns the generated image as PNG bytes.
func (g *Generator) textToImage(ctx context.Context, args map[string]any) (any, error) {
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("text_to_image requires a non-empty prompt argument")
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          g.model,
		Size:           g.size,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("openai image api error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no image data")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return raw, nil
}
