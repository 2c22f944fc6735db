package cv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
)

// ErrExtractionFailed is returned when a document cannot be turned into text.
var ErrExtractionFailed = errors.New("extraction failed")

// sniffLen is how much of an upload is inspected when its name carries no usable extension.
const sniffLen = 3072

var supportedTypes = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".rtf":  true,
	".odt":  true,
	".txt":  true,
}

type CVParser struct {
	uploadsDir string
}

type ParsedCV struct {
	Filename string
	FileType string
	FileSize int64
	FullText string
}

func NewCVParser(uploadsDir string) *CVParser {
	if uploadsDir == "" {
		uploadsDir = os.TempDir()
	}
	return &CVParser{
		uploadsDir: uploadsDir,
	}
}

// ParseFile extracts text from PDF/DOCX/TXT files.
// The upload is staged in a temporary file that is removed before returning, on every path.
func (p *CVParser) ParseFile(ctx context.Context, filename string, reader io.Reader) (*ParsedCV, error) {
	fileType, reader, err := detectType(filename, reader)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.uploadsDir, 0o755); err != nil {
		return nil, extractionFailed("failed to create uploads dir", err)
	}

	file, err := os.CreateTemp(p.uploadsDir, "upload-*"+fileType)
	if err != nil {
		return nil, extractionFailed("failed to create file", err)
	}
	filePath := file.Name()
	defer os.Remove(filePath)

	size, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, extractionFailed("failed to save file", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, extractionFailed("upload abandoned", err)
	}

	var text string
	switch fileType {
	case ".txt":
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, extractionFailed("failed to read text file", err)
		}
		text = string(content)
	default:
		res, err := docconv.ConvertPath(filePath)
		if err != nil {
			return nil, extractionFailed("failed to parse document", err)
		}
		text = res.Body
	}

	return &ParsedCV{
		Filename: filename,
		FileType: fileType,
		FileSize: size,
		FullText: text,
	}, nil
}

// detectType picks the document type from the file name, falling back to content sniffing.
// The returned reader replays any sniffed bytes.
func detectType(filename string, reader io.Reader) (string, io.Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if supportedTypes[ext] {
		return ext, reader, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, extractionFailed("failed to read upload", err)
	}
	head = head[:n]

	sniffed := mimetype.Detect(head).Extension()
	if !supportedTypes[sniffed] {
		label := ext
		if label == "" {
			label = mimetype.Detect(head).String()
		}
		return "", nil, extractionFailed("unsupported file type", errors.New(label))
	}
	return sniffed, io.MultiReader(bytes.NewReader(head), reader), nil
}

func extractionFailed(msg string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, msg, err)
}
