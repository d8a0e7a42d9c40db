package services

import (
	"strings"
)

// buildPrompt renders the fixed generation template. The instructions
// are the pipeline's contract with the backend: filler removed, blog
// structure, markdown headings, no meta talk about the source.
func buildPrompt(videoTitle, transcriptText string) string {
	var sb strings.Builder
	sb.WriteString("You are a professional transcription editor and blog writer.\n")
	sb.WriteString("Below is the transcript of a spoken video")
	if videoTitle != "" {
		sb.WriteString(" titled \"")
		sb.WriteString(videoTitle)
		sb.WriteString("\"")
	}
	sb.WriteString(".\n\n--- Transcript ---\n")
	sb.WriteString(transcriptText)
	sb.WriteString("\n--- End transcript ---\n\n")
	sb.WriteString("Rewrite it as a polished blog article:\n")
	sb.WriteString("- Remove filler words, false starts, and repetition.\n")
	sb.WriteString("- Fix transcription mistakes and punctuation.\n")
	sb.WriteString("- Structure the article with a single '# ' title line first,\n")
	sb.WriteString("  then '## ' section headings where the content warrants them.\n")
	sb.WriteString("- Keep it engaging, well-structured, and professional.\n")
	sb.WriteString("- Do not mention YouTube, videos, or that this came from a transcript.\n")
	sb.WriteString("- Output only the article in markdown, nothing else.\n")
	return sb.String()
}

// conversational lines some backends prepend despite instructions
var wrapperPrefixes = []string{
	"here is", "here's", "sure", "certainly", "of course", "okay", "ok,",
}

// postprocess cleans the raw backend output: strips code fences and
// conversational wrapper lines, extracts the title from the first
// markdown heading (falling back to the video title), and collects the
// '## ' section headings.
func postprocess(raw, fallbackTitle string) (title, body string, sections []string) {
	raw = strings.TrimSpace(raw)
	raw = stripCodeFence(raw)

	lines := strings.Split(raw, "\n")

	// drop leading wrapper chatter until the first heading or real paragraph
	start := 0
	for start < len(lines) && isWrapperLine(lines[start]) {
		start++
	}
	lines = lines[start:]

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	title = fallbackTitle
	if len(lines) > 0 {
		if h, ok := strings.CutPrefix(strings.TrimSpace(lines[0]), "# "); ok {
			title = strings.TrimSpace(h)
			lines = lines[1:]
		}
	}
	if title == "" {
		title = "Untitled"
	}

	for _, line := range lines {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "## "); ok {
			if h = strings.TrimSpace(h); h != "" {
				sections = append(sections, h)
			}
		}
	}

	body = strings.TrimSpace(strings.Join(lines, "\n"))
	return title, body, sections
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isWrapperLine(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	if l == "" {
		return false
	}
	if strings.HasPrefix(l, "#") {
		return false
	}
	for _, p := range wrapperPrefixes {
		if strings.HasPrefix(l, p) {
			// wrapper chatter is short; a long paragraph is content
			return len(l) < 120
		}
	}
	return false
}
