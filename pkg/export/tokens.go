package export

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenReport counts model tokens for each written document and returns a
// plain-text report, one line per document plus a total. Documents that
// cannot be read back are skipped with a note.
func TokenReport(documentPaths []string, model string) (string, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return "", fmt.Errorf("failed to get tokenizer for model %q: %w", model, err)
	}

	sorted := append([]string(nil), documentPaths...)
	sort.Strings(sorted)

	var b strings.Builder
	total := 0
	for _, path := range sorted {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(&b, "%s: unreadable (%v)\n", path, err)
			continue
		}
		count := len(tkm.Encode(string(data), nil, nil))
		total += count
		fmt.Fprintf(&b, "%s: %d tokens\n", path, count)
	}
	fmt.Fprintf(&b, "total: %d tokens\n", total)

	return b.String(), nil
}
