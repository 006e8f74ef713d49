package chat

import (
	"context"
	"strings"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/go-go-golems/docchat/pkg/retry"
	"github.com/rs/zerolog/log"
)

// LoadModels refreshes the model list. The selected model is kept if it is
// still offered, otherwise the first model is selected.
func (e *Engine) LoadModels(ctx context.Context) ([]api.Model, error) {
	models, err := retry.Do(ctx, e.retry, e.cfg.Retry, e.backend.ListModels)
	if err != nil {
		log.Error().Err(err).Msg("could not load models")
		e.state.mu.Lock()
		e.state.models = []api.Model{}
		e.state.mu.Unlock()
		e.changed()
		e.reportFailure("Failed to load AI models", err)
		return nil, err
	}

	e.state.mu.Lock()
	e.state.models = models
	if len(models) > 0 && !offers(models, e.state.selectedModel) {
		e.state.selectedModel = models[0].ID
	}
	e.state.mu.Unlock()
	e.changed()
	return models, nil
}

func offers(models []api.Model, id string) bool {
	if id == "" {
		return false
	}
	for _, m := range models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// SelectModel sets the model used for sends and generations.
func (e *Engine) SelectModel(id string) {
	e.state.mu.Lock()
	e.state.selectedModel = id
	e.state.mu.Unlock()
	e.changed()
}

// SetFeature switches the feature mode and loads its log.
func (e *Engine) SetFeature(ctx context.Context, feature conversation.FeatureMode) error {
	e.state.mu.Lock()
	if e.state.feature == feature {
		e.state.mu.Unlock()
		return nil
	}
	e.state.feature = feature
	e.state.log = []*conversation.Message{}
	f := e.state.focusLocked()
	e.state.mu.Unlock()
	e.changed()

	return e.LoadMessages(ctx, f.SessionID, f.Feature)
}

// documentSession returns the active session if it has a document bound.
func (e *Engine) documentSession() (*conversation.Session, error) {
	active := e.state.Active()
	if active == nil || !active.HasDocument() {
		e.notifier.ShowError(NoDocumentMessage)
		if active == nil {
			return nil, ErrNoActiveSession
		}
		return nil, ErrNoDocument
	}
	return active, nil
}

type QuestionOptions struct {
	QuestionType   string
	ChapterSegment string
}

func DefaultQuestionOptions() QuestionOptions {
	return QuestionOptions{QuestionType: "mixed"}
}

// GenerateQuestions asks the backend for questions about the active
// session's document, then switches to the question log.
func (e *Engine) GenerateQuestions(ctx context.Context, opts QuestionOptions) (api.GenerationResult, error) {
	active, err := e.documentSession()
	if err != nil {
		return nil, err
	}
	if opts.QuestionType == "" {
		opts.QuestionType = "mixed"
	}
	req := api.GenerateQuestionsRequest{
		SessionID:    active.ID,
		QuestionType: opts.QuestionType,
		Model:        e.state.SelectedModel(),
	}
	if opts.ChapterSegment != "" {
		segment := opts.ChapterSegment
		req.ChapterSegment = &segment
	}

	res, err := retry.Do(ctx, e.retry, retry.Config{}, func(ctx context.Context) (api.GenerationResult, error) {
		return e.backend.GenerateQuestions(ctx, req)
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", active.ID).Msg("could not generate questions")
		e.reportFailure("Error generating questions", err)
		return nil, err
	}

	return res, e.showGenerated(ctx, active.ID, conversation.FeatureQuestionGeneration)
}

type QuizOptions struct {
	QuizType      string
	Difficulty    string
	QuestionCount int
}

func DefaultQuizOptions() QuizOptions {
	return QuizOptions{QuizType: "manual", Difficulty: "medium", QuestionCount: 10}
}

func (e *Engine) GenerateQuiz(ctx context.Context, opts QuizOptions) (api.GenerationResult, error) {
	active, err := e.documentSession()
	if err != nil {
		return nil, err
	}
	defaults := DefaultQuizOptions()
	if opts.QuizType == "" {
		opts.QuizType = defaults.QuizType
	}
	if opts.Difficulty == "" {
		opts.Difficulty = defaults.Difficulty
	}
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = defaults.QuestionCount
	}
	req := api.GenerateQuizRequest{
		SessionID:     active.ID,
		QuizType:      opts.QuizType,
		Difficulty:    opts.Difficulty,
		QuestionCount: opts.QuestionCount,
		Model:         e.state.SelectedModel(),
	}

	res, err := retry.Do(ctx, e.retry, retry.Config{}, func(ctx context.Context) (api.GenerationResult, error) {
		return e.backend.GenerateQuiz(ctx, req)
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", active.ID).Msg("could not generate quiz")
		e.reportFailure("Error generating quiz", err)
		return nil, err
	}

	return res, e.showGenerated(ctx, active.ID, conversation.FeatureQuizGeneration)
}

// showGenerated switches to feature and, after the reload delay, loads the
// log the generator wrote to.
func (e *Engine) showGenerated(ctx context.Context, sessionID string, feature conversation.FeatureMode) error {
	e.state.mu.Lock()
	if e.state.activeID != sessionID {
		e.state.mu.Unlock()
		return nil
	}
	e.state.feature = feature
	e.state.log = []*conversation.Message{}
	e.state.mu.Unlock()
	e.changed()

	if err := e.sleep(ctx, e.cfg.ReloadDelay); err != nil {
		return err
	}
	return e.LoadMessages(ctx, sessionID, feature)
}

const (
	SearchTypeAll = "all"
	SearchLimit   = 20
)

// Search runs a full-text search across sessions and documents. A blank
// query does nothing.
func (e *Engine) Search(ctx context.Context, query string) ([]api.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	req := api.SearchRequest{Query: query, SearchType: SearchTypeAll, Limit: SearchLimit}
	results, err := retry.Do(ctx, e.retry, retry.Config{}, func(ctx context.Context) ([]api.SearchResult, error) {
		return e.backend.Search(ctx, req)
	})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("search failed")
		e.reportFailure("Error searching", err)
		return nil, err
	}

	e.state.mu.Lock()
	e.state.searchResults = results
	e.state.mu.Unlock()
	e.changed()
	return results, nil
}
