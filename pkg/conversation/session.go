package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-clone"
)

// Session is a conversation container, optionally bound to one document.
type Session struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	DocumentFilename string    `json:"document_filename,omitempty" yaml:"document_filename,omitempty"`
	DocumentType     string    `json:"document_type,omitempty" yaml:"document_type,omitempty"`
	// PDFFilename is set by older backends that only accepted PDFs.
	PDFFilename string `json:"pdf_filename,omitempty" yaml:"pdf_filename,omitempty"`
}

// UnmarshalJSON accepts the zone-less created_at timestamps the backend emits.
func (s *Session) UnmarshalJSON(b []byte) error {
	type alias Session
	var w struct {
		*alias
		CreatedAt string `json:"created_at"`
	}
	w.alias = (*alias)(s)
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s.CreatedAt = ParseTimestamp(w.CreatedAt, time.Time{})
	return nil
}

func (s *Session) HasDocument() bool {
	return s != nil && (s.DocumentFilename != "" || s.PDFFilename != "")
}

// DocumentName is the bound document's filename, preferring the current field.
func (s *Session) DocumentName() string {
	if s == nil {
		return ""
	}
	if s.DocumentFilename != "" {
		return s.DocumentFilename
	}
	return s.PDFFilename
}

func (s *Session) Clone() *Session {
	return clone.Clone(s).(*Session)
}

var fileIcons = map[string]string{
	"pdf":  "📄",
	"docx": "📝",
	"xlsx": "📊",
	"xls":  "📊",
	"csv":  "📈",
	"txt":  "📃",
	"pptx": "📽️",
}

// FileIcon maps a document type tag to its icon.
func FileIcon(fileType string) string {
	if icon, ok := fileIcons[strings.ToLower(fileType)]; ok {
		return icon
	}
	return "📄"
}

// UploadMessage is the system message appended after a successful upload.
func UploadMessage(filename string, fileType string) string {
	return fmt.Sprintf(`%s %s "%s" uploaded successfully! You can now use all features with this document.`,
		FileIcon(fileType), strings.ToUpper(fileType), filename)
}
