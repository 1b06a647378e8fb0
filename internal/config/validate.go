package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateNotes(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMail() error {
	if c.Mail.Host == "" {
		return errors.New("mail.host is required. Set QUILL_IMAP_HOST env var or edit the config file (create with 'quill config init')")
	}
	if c.Mail.Username == "" {
		return errors.New("mail.username is required (or set QUILL_IMAP_USERNAME)")
	}
	if c.Mail.Password == "" {
		return errors.New("mail.password is required (or set QUILL_IMAP_PASSWORD)")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port %d is out of range", c.Mail.Port)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required (or set OPENROUTER_API_KEY)")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateNotes() error {
	if c.Notes.Token == "" {
		return errors.New("notes.token is required (or set NOTION_TOKEN)")
	}
	if c.Notes.ParentID == "" {
		return errors.New("notes.parent_id is required (or set NOTION_PARENT_ID)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.run_interval_minutes": c.Workflow.RunIntervalMinutes,
		"workflow.fetch_limit":          c.Workflow.FetchLimit,
		"workflow.max_links":            c.Workflow.MaxLinks,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"notes.timeout_seconds":         c.Notes.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.MinScore < 0 || c.Workflow.MinScore > 100 {
		return errors.New("workflow.min_score must be between 0 and 100")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
