package assistant

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFence   = regexp.MustCompile("```json|```")
	arrayRegion = regexp.MustCompile(`(?s)\[.*?\]`)

	pureObject = regexp.MustCompile(`^\s*\{[\s\S]*\}\s*$`)
	pureArray  = regexp.MustCompile(`(?s)^\s*\[.*\]\s*$`)
)

// Extract recovers command objects from free model text, in the order they
// appear. Code fences are stripped first. The first bracketed region is tried
// as an array of objects; if that does not parse, every brace-delimited
// region is parsed on its own and the ones that fail are dropped.
func Extract(text string) []RawCommand {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))

	if region := arrayRegion.FindString(cleaned); region != "" {
		var cmds []RawCommand
		if err := json.Unmarshal([]byte(region), &cmds); err == nil {
			return nonNil(cmds)
		}
	}

	return scanObjects(cleaned)
}

// scanObjects walks the text from each opening brace to the nearest closing
// brace. When that shortest region is not valid JSON, the region is widened
// to each following closing brace in turn, so nested filter objects survive.
// A region that never parses is skipped and scanning resumes after its first
// closing brace.
func scanObjects(text string) []RawCommand {
	var cmds []RawCommand
	pos := 0
	for pos < len(text) {
		open := strings.IndexByte(text[pos:], '{')
		if open < 0 {
			break
		}
		start := pos + open

		firstClose := strings.IndexByte(text[start:], '}')
		if firstClose < 0 {
			break
		}
		firstEnd := start + firstClose + 1

		pos = firstEnd
		end := firstEnd
		for {
			var cmd RawCommand
			if err := json.Unmarshal([]byte(text[start:end]), &cmd); err == nil {
				cmds = append(cmds, cmd)
				pos = end
				break
			}
			more := strings.IndexByte(text[end:], '}')
			if more < 0 {
				break
			}
			end += more + 1
		}
	}
	return nonNil(cmds)
}

// IsPureJSON reports whether the trimmed text is one object or one array and
// nothing else.
func IsPureJSON(text string) bool {
	return pureObject.MatchString(text) || pureArray.MatchString(text)
}

func nonNil(cmds []RawCommand) []RawCommand {
	if cmds == nil {
		return []RawCommand{}
	}
	return cmds
}
