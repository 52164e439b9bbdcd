package domain

import (
	"path/filepath"
	"strings"
)

// FileTypePDF is the only document type the ingestion service accepts
const FileTypePDF = "pdf"

// UploadFieldName is the multipart field carrying the document bytes
const UploadFieldName = "pdf"

// DetectFileType detects file type from filename
func DetectFileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	return ext[1:]
}

// IsSupported checks if the file can be submitted as a document
func IsSupported(filename string) bool {
	return DetectFileType(filename) == FileTypePDF
}

// UploadedMessage is the synthetic assistant turn announcing a new document
func UploadedMessage(filename string) string {
	return `PDF "` + filename + `" uploaded successfully. Ask me anything about it!`
}

// UploadFailedMessage is the synthetic assistant turn reporting a failed upload
func UploadFailedMessage(message string) string {
	return "Error processing PDF: " + message
}
