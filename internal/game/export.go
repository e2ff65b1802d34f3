package game

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Export writes the story of g as plain text.
func Export(w io.Writer, g Game) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Story %s: %q\n", g.ID, g.Title))
	sb.WriteString(fmt.Sprintf("Started: %s\n", g.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Status: %s\n", g.Status))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("Players:\n")
	names := make(map[string]string, len(g.Players))
	for _, p := range g.Players {
		names[p.ID] = p.Name
		sb.WriteString(fmt.Sprintf("- %s\n", p.Name))
	}
	sb.WriteString("\n")

	for _, c := range g.Contributions {
		author := names[c.PlayerID]
		if author == "" {
			author = c.PlayerID
		}
		sb.WriteString(fmt.Sprintf("%3d. [%s] %s\n", c.Order, author, c.Sentence))
	}

	sb.WriteString(fmt.Sprintf("\nEnded at %s\n", g.UpdatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// ExportFile appends the story of g to filename, creating it if needed.
func ExportFile(filename string, g Game) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := Export(file, g); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
