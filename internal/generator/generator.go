// Package generator produces challenge definitions from a remote text model.
// Model output is never trusted: it is extracted, parsed, and clamped into
// the game's guardrails before anything is stored or shown.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/metrics"
	"zcoinsAPI/internal/types/challenge"
)

const maxSlugLen = 40

var errNoJSON = errors.New("no JSON value in model output")

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type DefinitionSaver interface {
	SaveDefinitions(ctx context.Context, createdBy string, defs []challenge.Definition) error
}

type Generator struct {
	model  TextGenerator
	saver  DefinitionSaver
	logger logging.Logger
}

func New(model TextGenerator, saver DefinitionSaver, logger logging.Logger) *Generator {
	return &Generator{model: model, saver: saver, logger: logger}
}

// Generate returns count fresh challenges for userID (count is 1 or a batch
// of 5). It never fails: any problem yields FallbackChallenges.
func (g *Generator) Generate(ctx context.Context, userID string, count int) []challenge.Definition {
	if count != Single {
		count = BatchSize
	}

	defs, err := g.generate(ctx, userID, count)
	if err != nil {
		g.logger.Warn(ctx, "challenge generation failed, serving fallback", "user_id", userID, "error", err)
		metrics.GeneratorFallbacks.Inc()
		return FallbackChallenges()
	}

	g.logger.Info(ctx, "generated challenges", "user_id", userID, "count", len(defs))
	return defs
}

func (g *Generator) generate(ctx context.Context, userID string, count int) ([]challenge.Definition, error) {
	text, err := g.model.Generate(ctx, BuildPrompt(userID, count))
	if err != nil {
		return nil, err
	}

	raws, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(raws) > count {
		raws = raws[:count]
	}

	defs := make([]challenge.Definition, len(raws))
	for i, raw := range raws {
		d := Sanitize(raw, i)
		d.ID = newID(d.Title)
		defs[i] = d
	}

	if err := g.saver.SaveDefinitions(ctx, userID, defs); err != nil {
		return nil, fmt.Errorf("saving generated challenges: %w", err)
	}
	return defs, nil
}

// Parse extracts and decodes model output. It accepts an array, a single
// object, or an object wrapping a "challenges" array.
func Parse(text string) ([]RawChallenge, error) {
	js, ok := ExtractJSON(text)
	if !ok {
		return nil, errNoJSON
	}

	var raws []RawChallenge
	if strings.HasPrefix(js, "[") {
		if err := json.Unmarshal([]byte(js), &raws); err != nil {
			return nil, fmt.Errorf("decoding challenge array: %w", err)
		}
	} else {
		var wrapper struct {
			Challenges []RawChallenge `json:"challenges"`
		}
		if err := json.Unmarshal([]byte(js), &wrapper); err == nil && len(wrapper.Challenges) > 0 {
			raws = wrapper.Challenges
		} else {
			var one RawChallenge
			if err := json.Unmarshal([]byte(js), &one); err != nil {
				return nil, fmt.Errorf("decoding challenge: %w", err)
			}
			raws = []RawChallenge{one}
		}
	}

	if len(raws) == 0 {
		return nil, errors.New("model returned no challenges")
	}
	return raws, nil
}

func newID(title string) string {
	s := slug.Make(title)
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		s = "challenge"
	}
	return fmt.Sprintf("ai-%s-%s", s, uuid.NewString()[:8])
}
