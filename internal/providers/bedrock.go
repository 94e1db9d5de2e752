package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockTitanProvider embeds with Amazon Titan text embedding models.
type BedrockTitanProvider struct {
	model  string
	region string
	client *bedrockruntime.Client
}

func NewBedrockTitanProvider(ctx context.Context, model, region string) (*BedrockTitanProvider, error) {
	if model == "" {
		model = envOr("DOCUDIVE_BEDROCK_EMBED_MODEL", "amazon.titan-embed-text-v2:0")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockTitanProvider{
		model:  model,
		region: region,
		client: bedrockruntime.NewFromConfig(awsCfg),
	}, nil
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed issues one InvokeModel call per input; Titan has no batch form.
func (b *BedrockTitanProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "bedrock", Model: b.model, Key: b.region}
	out := make([][]float32, 0, len(req.Inputs))
	for _, text := range req.Inputs {
		body, err := json.Marshal(titanRequest{InputText: text, Dimensions: titanDimensions(req.Dimension)})
		if err != nil {
			return nil, info, fmt.Errorf("encode titan request: %w", err)
		}
		resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(b.model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, info, fmt.Errorf("bedrock embedding: %w", err)
		}
		var parsed titanResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, info, fmt.Errorf("decode titan response: %w", err)
		}
		if len(parsed.Embedding) == 0 {
			return nil, info, fmt.Errorf("bedrock returned empty embedding")
		}
		out = append(out, matchDimension(parsed.Embedding, req.Dimension))
	}
	return out, info, nil
}

// titanDimensions passes through only the sizes Titan v2 accepts.
func titanDimensions(dim int) int {
	switch dim {
	case 256, 512, 1024:
		return dim
	default:
		return 0
	}
}
