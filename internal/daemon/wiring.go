package daemon

import (
	"context"
	"log/slog"

	"quill/internal/clean"
	"quill/internal/config"
	"quill/internal/ledger"
	"quill/internal/localstore"
	"quill/internal/pipeline"
	"quill/internal/services/llm"
	"quill/internal/services/mail"
	"quill/internal/services/notes"
)

// Components bundles everything the daemon host needs to run the
// pipeline.
type Components struct {
	Runner  *pipeline.Runner
	Prompts *llm.PromptSet
	Probes  []HealthProbe
}

// BuildComponents wires the pipeline collaborators from configuration:
// the IMAP source, content normalizer, gist extractor, destination
// publisher, and optional local archive.
func BuildComponents(cfg *config.Config, store *ledger.Store, logger *slog.Logger) Components {
	source := mail.NewSource(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		Mailbox:  cfg.Mail.Mailbox,
		MarkSeen: cfg.Mail.MarkSeen,
	}, logger)

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	prompts := llm.NewPromptSet(cfg.LLM.SystemPromptPath, cfg.LLM.UserPromptPath)

	notesClient := notes.NewClient(notes.Config{
		Token:          cfg.Notes.Token,
		BaseURL:        cfg.Notes.BaseURL,
		ParentID:       cfg.Notes.ParentID,
		APIVersion:     cfg.Notes.APIVersion,
		TimeoutSeconds: cfg.Notes.TimeoutSeconds,
	})
	publisher := notes.NewPublisher(notesClient, logger)

	var archiver pipeline.Archiver
	if cfg.Archive.Enabled {
		archiver = localstore.NewWriter(cfg.Archive.Dir, localstore.Format(cfg.Archive.Format))
	}

	runner := pipeline.NewRunner(pipeline.Options{
		FetchLimit:     cfg.Workflow.FetchLimit,
		MinScore:       cfg.Workflow.MinScore,
		MaxLinks:       cfg.Workflow.MaxLinks,
		ContentHeading: cfg.Notes.ContentHeading,
	},
		&mailSource{source: source, store: store},
		clean.NewNormalizer(0),
		&gistExtractor{client: llmClient, prompts: prompts},
		store,
		publisher,
		archiver,
		logger,
	)

	probes := []HealthProbe{
		{Name: "mailbox", Check: source.HealthCheck},
		{Name: "llm", Check: llmClient.HealthCheck},
		{Name: "notes", Check: notesClient.HealthCheck},
	}
	return Components{Runner: runner, Prompts: prompts, Probes: probes}
}

// mailSource adapts the IMAP source to the pipeline contract, filtering
// out documents the ledger has already seen.
type mailSource struct {
	source *mail.Source
	store  *ledger.Store
}

func (m *mailSource) FetchPending(ctx context.Context, limit int) ([]pipeline.Document, int, error) {
	messages, total, err := m.source.FetchPending(ctx, limit, m.store.IsProcessed)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]pipeline.Document, 0, len(messages))
	for _, msg := range messages {
		docs = append(docs, pipeline.Document{
			ID:      msg.ID,
			UID:     msg.UID,
			Subject: msg.Subject,
			Sender:  msg.Sender,
			Date:    msg.Date,
			Raw:     msg.Content(),
		})
	}
	return docs, total, nil
}

func (m *mailSource) MarkProcessed(ctx context.Context, doc pipeline.Document) error {
	return m.source.MarkProcessed(ctx, doc.UID)
}

// gistExtractor adapts the LLM client to the pipeline contract.
type gistExtractor struct {
	client  *llm.Client
	prompts *llm.PromptSet
}

func (g *gistExtractor) Extract(ctx context.Context, doc pipeline.Document, cleaned string) (llm.Gist, error) {
	return g.client.ExtractGist(ctx, g.prompts, doc.Subject, doc.Sender, cleaned)
}
