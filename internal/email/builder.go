package email

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Build assembles the immutable Message sent to every recipient in a run.
// Subject and body may be empty. Attachment paths that do not exist are
// skipped with a warning so that one bad path never blocks the whole run;
// any other read failure aborts the build.
func Build(from, subject, body string, attachmentPaths []string) (*Message, error) {
	msg := &Message{
		From:    from,
		Subject: subject,
		Body:    body,
	}

	for _, path := range attachmentPaths {
		att, err := loadAttachment(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("attachment not found, skipping",
					"path", path,
				)
				continue
			}
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	return msg, nil
}

// loadAttachment reads the file fully into memory and tags it with a content
// type whose subtype is the raw lowercased file extension. No canonical MIME
// table is consulted; an extensionless file falls back to octet-stream.
func loadAttachment(path string) (Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}

	subtype := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if subtype == "" {
		subtype = "octet-stream"
	}

	return Attachment{
		Filename:    filepath.Base(path),
		ContentType: "application/" + subtype,
		Content:     content,
	}, nil
}
