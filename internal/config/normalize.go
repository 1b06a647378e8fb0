package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMail()
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	c.normalizeNotes()
	c.normalizeWorkflow()
	c.normalizeLogging()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeMail() {
	c.Mail.Host = strings.TrimSpace(c.Mail.Host)
	if c.Mail.Host == "" {
		if value, ok := os.LookupEnv("QUILL_IMAP_HOST"); ok {
			c.Mail.Host = strings.TrimSpace(value)
		}
	}
	c.Mail.Username = strings.TrimSpace(c.Mail.Username)
	if c.Mail.Username == "" {
		if value, ok := os.LookupEnv("QUILL_IMAP_USERNAME"); ok {
			c.Mail.Username = strings.TrimSpace(value)
		}
	}
	if c.Mail.Password == "" {
		if value, ok := os.LookupEnv("QUILL_IMAP_PASSWORD"); ok {
			c.Mail.Password = value
		}
	}
	if c.Mail.Port <= 0 {
		c.Mail.Port = defaultMailPort
	}
	c.Mail.Mailbox = strings.TrimSpace(c.Mail.Mailbox)
	if c.Mail.Mailbox == "" {
		c.Mail.Mailbox = defaultMailMailbox
	}
}

func (c *Config) normalizeLLM() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("QUILL_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	var err error
	if strings.TrimSpace(c.LLM.SystemPromptPath) == "" {
		c.LLM.SystemPromptPath = defaultSystemPromptPath
	}
	if c.LLM.SystemPromptPath, err = expandPath(c.LLM.SystemPromptPath); err != nil {
		return fmt.Errorf("llm.system_prompt_path: %w", err)
	}
	if strings.TrimSpace(c.LLM.UserPromptPath) == "" {
		c.LLM.UserPromptPath = defaultUserPromptPath
	}
	if c.LLM.UserPromptPath, err = expandPath(c.LLM.UserPromptPath); err != nil {
		return fmt.Errorf("llm.user_prompt_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotes() {
	c.Notes.Token = strings.TrimSpace(c.Notes.Token)
	if c.Notes.Token == "" {
		if value, ok := os.LookupEnv("NOTION_TOKEN"); ok {
			c.Notes.Token = strings.TrimSpace(value)
		}
	}
	c.Notes.ParentID = strings.TrimSpace(c.Notes.ParentID)
	if c.Notes.ParentID == "" {
		if value, ok := os.LookupEnv("NOTION_PARENT_ID"); ok {
			c.Notes.ParentID = strings.TrimSpace(value)
		}
	}
	c.Notes.BaseURL = strings.TrimSpace(c.Notes.BaseURL)
	if c.Notes.BaseURL == "" {
		c.Notes.BaseURL = defaultNotesBaseURL
	}
	c.Notes.APIVersion = strings.TrimSpace(c.Notes.APIVersion)
	if c.Notes.APIVersion == "" {
		c.Notes.APIVersion = defaultNotesAPIVersion
	}
	if c.Notes.TimeoutSeconds <= 0 {
		c.Notes.TimeoutSeconds = defaultNotesTimeout
	}
	c.Notes.ContentHeading = strings.TrimSpace(c.Notes.ContentHeading)
	if c.Notes.ContentHeading == "" {
		c.Notes.ContentHeading = defaultContentHeading
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.RunIntervalMinutes <= 0 {
		c.Workflow.RunIntervalMinutes = defaultRunIntervalMinutes
	}
	if c.Workflow.FetchLimit <= 0 {
		c.Workflow.FetchLimit = defaultFetchLimit
	}
	if c.Workflow.MinScore < 0 {
		c.Workflow.MinScore = 0
	}
	if c.Workflow.MaxLinks <= 0 {
		c.Workflow.MaxLinks = defaultMaxLinks
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeArchive() error {
	var err error
	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = defaultArchiveDir()
	}
	if c.Archive.Dir, err = expandPath(c.Archive.Dir); err != nil {
		return fmt.Errorf("archive.dir: %w", err)
	}
	c.Archive.Format = strings.ToLower(strings.TrimSpace(c.Archive.Format))
	switch c.Archive.Format {
	case "", "markdown":
		c.Archive.Format = "markdown"
	case "json":
	default:
		c.Archive.Format = "markdown"
	}
	return nil
}
