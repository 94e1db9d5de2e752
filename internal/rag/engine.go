package rag

import (
	"context"
	"fmt"
	"strings"

	"docudive/internal/models"
	"docudive/internal/providers"
	"docudive/internal/util"

	"github.com/phuslu/log"
)

type Answer struct {
	Question string               `json:"question"`
	Response string               `json:"response"`
	Text     string               `json:"text"`
	Sources  []string             `json:"sources"`
	Results  []models.QueryResult `json:"results"`
	Prompt   string               `json:"-"`
}

type Engine struct {
	retriever *Retriever
	template  *Template
	llm       providers.LLMProvider
	topK      int
	maxTokens int
	logger    *log.Logger
}

type EngineOptions struct {
	TopK      int
	MaxTokens int
	Template  *Template
}

func NewEngine(retriever *Retriever, llm providers.LLMProvider, opts EngineOptions, logger *log.Logger) *Engine {
	tpl := opts.Template
	if tpl == nil {
		tpl = MustDefaultTemplate()
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Engine{
		retriever: retriever,
		template:  tpl,
		llm:       llm,
		topK:      opts.TopK,
		maxTokens: opts.MaxTokens,
		logger:    logger,
	}
}

// Answer runs one question through retrieval and generation. A generation
// failure is returned as is and no partial response is produced.
func (e *Engine) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, util.WrapOp("query", util.ErrInvalidInput, fmt.Errorf("question is empty"))
	}
	results, err := e.retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return Answer{}, err
	}
	prompt := e.template.Assemble(results, question)
	e.logger.Debug().Int("results", len(results)).Int("prompt_runes", len([]rune(prompt))).Msg("prompt assembled")

	resp, info, err := e.llm.Generate(ctx, providers.GenerateRequest{Operation: "answer", Prompt: prompt, MaxTokens: e.maxTokens})
	if err != nil {
		return Answer{}, err
	}
	e.logger.Info().Str("provider", info.Name).Str("model", info.Model).Int("sources", len(results)).Msg("answer generated")

	ids := SourceIDs(results)
	return Answer{
		Question: question,
		Response: FormatResponse(resp.Text, ids),
		Text:     resp.Text,
		Sources:  ids,
		Results:  results,
		Prompt:   prompt,
	}, nil
}
