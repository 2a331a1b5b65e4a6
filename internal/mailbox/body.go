package mailbox

import (
	"encoding/base64"
	"strings"

	"github.com/k3a/html2text"
	"google.golang.org/api/gmail/v1"
)

// extractBody pulls a plain-text body out of a message payload. The
// first text/plain part wins; HTML-only messages are converted to
// text. Messages with no decodable text part yield an empty body.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if text := findPart(payload, "text/plain"); text != "" {
		return text
	}
	if html := findPart(payload, "text/html"); html != "" {
		return strings.TrimSpace(html2text.HTML2Text(html))
	}
	return ""
}

// findPart walks the part tree depth-first and returns the decoded
// body of the first part with the given MIME type.
func findPart(p *gmail.MessagePart, mimeType string) string {
	if p.MimeType == mimeType && p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if text := findPart(part, mimeType); text != "" {
			return text
		}
	}
	return ""
}

// decodeBody decodes a base64url message body. Gmail omits padding;
// both forms are accepted.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}
