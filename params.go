package goci

// scanPlaceholders calls fn with each :name / :n bind placeholder occurrence
// in statement order. Occurrences inside string literals, quoted identifiers
// and comments are not placeholders.
func scanPlaceholders(query string, fn func(name string)) {
	i := 0
	for i < len(query) {
		c := query[i]

		// Skip string literals (single quotes)
		if c == '\'' {
			i++
			for i < len(query) {
				if query[i] == '\'' {
					if i+1 < len(query) && query[i+1] == '\'' {
						// Escaped quote
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			continue
		}

		// Skip quoted identifiers (double quotes)
		if c == '"' {
			i++
			for i < len(query) && query[i] != '"' {
				i++
			}
			if i < len(query) {
				i++
			}
			continue
		}

		// Skip comments (-- style)
		if c == '-' && i+1 < len(query) && query[i+1] == '-' {
			for i < len(query) && query[i] != '\n' {
				i++
			}
			continue
		}

		// Skip comments (/* */ style)
		if c == '/' && i+1 < len(query) && query[i+1] == '*' {
			i += 2
			for i+1 < len(query) {
				if query[i] == '*' && query[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			continue
		}

		if c == ':' && i+1 < len(query) && isPlaceholderChar(query[i+1]) {
			start := i + 1
			end := start
			for end < len(query) && isPlaceholderChar(query[end]) {
				end++
			}
			fn(query[start:end])
			i = end
			continue
		}

		i++
	}
}

// countPlaceholders counts the distinct bind placeholders in a statement
// text; a name repeated in the text counts once. Texts with repeated names
// are rejected at prepare time, so for accepted statements this equals the
// number of positional binds an execution takes.
func countPlaceholders(query string) int {
	seen := make(map[string]struct{})
	scanPlaceholders(query, func(name string) {
		seen[name] = struct{}{}
	})
	return len(seen)
}

// repeatedPlaceholder returns the first placeholder name occurring more than
// once in query, or "" when every placeholder is unique.
func repeatedPlaceholder(query string) string {
	seen := make(map[string]struct{})
	repeated := ""
	scanPlaceholders(query, func(name string) {
		if repeated != "" {
			return
		}
		if _, ok := seen[name]; ok {
			repeated = name
			return
		}
		seen[name] = struct{}{}
	})
	return repeated
}

func isPlaceholderChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
