package intake

import (
	"fmt"
	"strings"
)

// Severity classifies a validation issue. Errors block upload, warnings are
// advisory only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Candidate is one file staged by the user for a document category. It only
// lives for the duration of the intake session.
type Candidate struct {
	FileName    string
	MediaType   string
	Size        int64
	Content     []byte
	Category    string
	Description string
}

// Issue is the result of applying one validation rule to one candidate.
type Issue struct {
	Severity Severity
	Message  string
	FileName string
}

const maxFileSizeBytes = 10 << 20 // 10 MiB

var acceptedMediaTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/jpg":          {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

// Validate applies every rule to the candidate and returns the resulting
// issues. Rules are evaluated independently, not short-circuited, so the
// caller sees every problem in one pass.
func Validate(c Candidate) []Issue {
	var issues []Issue

	if c.Size > maxFileSizeBytes {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s is too large, maximum size is 10MB", c.FileName),
			FileName: c.FileName,
		})
	}

	if _, ok := acceptedMediaTypes[c.MediaType]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s has an unsupported file type", c.FileName),
			FileName: c.FileName,
		})
	}

	if c.Size == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s is empty", c.FileName),
			FileName: c.FileName,
		})
	}

	if isImage(c.MediaType) && LikelyBlurry(c.Content) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s appears to be blurry, upload a clearer image", c.FileName),
			FileName: c.FileName,
		})
	}

	return issues
}

// HasBlocking reports whether any issue in the list is error severity.
func HasBlocking(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
