// Package export writes channel histories to files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/jung-kurt/gofpdf"
)

type Format string

const (
	Text Format = "txt"
	PDF  Format = "pdf"
)

// ParseFormat accepts "txt", "text" and "pdf", case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "txt", "text":
		return Text, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownFormat, raw)
}

// Write exports the channel history into dir and returns the file path.
func Write(dir string, channel *domain.Channel, format Format) (string, error) {
	switch format {
	case Text:
		return WriteText(dir, channel)
	case PDF:
		return WritePDF(dir, channel)
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownFormat, format)
}

// WriteText writes the plain history, exactly as rendered by the channel.
func WriteText(dir string, channel *domain.Channel) (string, error) {
	path, err := target(dir, channel, Text)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(channel.ExportChatHistory()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WritePDF renders the same lines as WriteText on A4 pages. Characters outside
// cp1252 (emoji markers) are dropped by the core fonts.
func WritePDF(dir string, channel *domain.Channel) (string, error) {
	path, err := target(dir, channel, PDF)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(channel.Name(), true)
	pdf.AddPage()

	lines := strings.Split(strings.TrimRight(channel.ExportChatHistory(), "\n"), "\n")
	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(lines[0]), "", "", false)
	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	for _, line := range lines[1:] {
		if line == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5, tr(line), "", "", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func target(dir string, channel *domain.Channel, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	return filepath.Join(dir, FileName(channel.Name(), channel.ID(), format)), nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName derives a portable file name from the channel name. The id prefix
// keeps two channels with the same name apart.
func FileName(name string, id domain.ChannelID, format Format) string {
	base := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if base == "" {
		base = "channel"
	}
	short := string(id)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s.%s", base, short, format)
}
