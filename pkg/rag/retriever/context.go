package retriever

import (
	"fmt"
	"strings"
)

const passageSeparator = "\n\n---\n\n"

// FormatRetrievalContext joins results in ranked order, each passage headed
// by "[Source n: <document>, page <p>]" so a generator can cite it.
func FormatRetrievalContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	passages := make([]string, len(results))
	for i, res := range results {
		name := res.DocumentName
		if name == "" {
			name = "Unknown document"
		}
		passages[i] = fmt.Sprintf("[Source %d: %s, page %d]\n%s", i+1, name, res.PageNumber, strings.TrimSpace(res.Content))
	}
	return strings.Join(passages, passageSeparator)
}
