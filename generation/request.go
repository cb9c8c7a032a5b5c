package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/x402gen/utils"
)

const (
	DefaultModel       = "xai-grok-imagine"
	DefaultDuration    = 8
	DefaultAspectRatio = "9:16"
)

// GenerationRequest is one media generation job as entered by the caller.
// Build it with NewGenerationRequest; it is not modified afterwards.
type GenerationRequest struct {
	Prompt          string `validate:"required"`
	Model           string `validate:"required"`
	DurationSeconds int    `validate:"gt=0"`
	AspectRatio     string `validate:"oneof=16:9 9:16 1:1 4:3 3:4"`
	AgentID         string
	ImageData       string `validate:"omitempty,url|datauri"`
}

type RequestOption func(*GenerationRequest)

func WithModel(model string) RequestOption {
	return func(r *GenerationRequest) {
		if model != "" {
			r.Model = model
		}
	}
}

func WithDuration(seconds int) RequestOption {
	return func(r *GenerationRequest) {
		if seconds != 0 {
			r.DurationSeconds = seconds
		}
	}
}

func WithAspectRatio(ratio string) RequestOption {
	return func(r *GenerationRequest) {
		if ratio != "" {
			r.AspectRatio = ratio
		}
	}
}

func WithAgentID(id string) RequestOption {
	return func(r *GenerationRequest) { r.AgentID = id }
}

// WithImageData attaches a reference image as an http(s) URL or a data URI.
func WithImageData(data string) RequestOption {
	return func(r *GenerationRequest) { r.ImageData = data }
}

// NewGenerationRequest applies defaults and options, then validates. Failures
// are ErrInput.
func NewGenerationRequest(prompt string, opts ...RequestOption) (*GenerationRequest, error) {
	r := &GenerationRequest{
		Prompt:          strings.TrimSpace(prompt),
		Model:           DefaultModel,
		DurationSeconds: DefaultDuration,
		AspectRatio:     DefaultAspectRatio,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.AgentID = strings.TrimSpace(r.AgentID)
	r.ImageData = strings.TrimSpace(r.ImageData)

	if err := utils.ValidateStruct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, inputError("%s failed %q validation (got %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return nil, &Error{Kind: ErrInput, Err: err}
	}
	return r, nil
}

// CreatePayload is the JSON body of POST /generation/create.
type CreatePayload struct {
	Prompt      string `json:"prompt"`
	VideoModel  string `json:"videoModel"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspectRatio"`
	AgentID     string `json:"agentId,omitempty"`
	ImageData   string `json:"imageData,omitempty"`
}

// Payload returns the creation body. Absent optional fields are omitted, not null.
func (r *GenerationRequest) Payload() CreatePayload {
	return CreatePayload{
		Prompt:      r.Prompt,
		VideoModel:  r.Model,
		Duration:    r.DurationSeconds,
		AspectRatio: r.AspectRatio,
		AgentID:     r.AgentID,
		ImageData:   r.ImageData,
	}
}

func (r *GenerationRequest) String() string {
	return fmt.Sprintf("%s %ds %s", r.Model, r.DurationSeconds, r.AspectRatio)
}
