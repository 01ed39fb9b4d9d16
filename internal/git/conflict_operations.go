package git

import (
	"strings"
)

type ResolutionChoice int

const (
	ChooseOurs ResolutionChoice = iota
	ChooseTheirs
)

func (c ResolutionChoice) String() string {
	if c == ChooseTheirs {
		return "theirs"
	}
	return "ours"
}

const (
	markerStart     = "<<<<<<<"
	markerBase      = "|||||||"
	markerSeparator = "======="
	markerEnd       = ">>>>>>>"
)

type ConflictSection struct {
	Start        int
	End          int
	StartLine    int
	EndLine      int
	OurChanges   string
	TheirChanges string
	BaseContent  string
}

type line struct {
	text  string
	start int
	end   int // offset just past the line break, or len(content) for a final unterminated line
	nl    bool
}

func splitLines(content string) []line {
	var lines []line
	offset := 0
	for offset < len(content) {
		idx := strings.IndexByte(content[offset:], '\n')
		if idx < 0 {
			lines = append(lines, line{text: content[offset:], start: offset, end: len(content)})
			break
		}
		lines = append(lines, line{text: content[offset : offset+idx], start: offset, end: offset + idx + 1, nl: true})
		offset += idx + 1
	}
	return lines
}

// isMarker reports whether text is the marker alone or the marker followed by a space and a label.
func isMarker(text, marker string) bool {
	text = strings.TrimSuffix(text, "\r")
	if text == marker {
		return true
	}
	return strings.HasPrefix(text, marker+" ")
}

func isSeparator(text string) bool {
	return strings.TrimSuffix(text, "\r") == markerSeparator
}

func joinLines(lines []line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

// ParseConflictMarkers returns every well-formed conflict section in content, in order.
// Sections never nest: a start marker inside an open section abandons the open one.
func ParseConflictMarkers(content string) []ConflictSection {
	lines := splitLines(content)
	var sections []ConflictSection

	i := 0
	for i < len(lines) {
		if !isMarker(lines[i].text, markerStart) {
			i++
			continue
		}

		section, next, ok := parseSection(lines, i)
		if ok {
			sections = append(sections, section)
		}
		i = next
	}

	return sections
}

// parseSection tries to read one section starting at lines[start]. On failure it returns
// the index where scanning should resume.
func parseSection(lines []line, start int) (ConflictSection, int, bool) {
	const (
		inOurs = iota
		inBase
		inTheirs
	)

	state := inOurs
	oursFrom, baseFrom, theirsFrom := start+1, -1, -1
	oursTo, baseTo := -1, -1

	for j := start + 1; j < len(lines); j++ {
		text := lines[j].text

		if isMarker(text, markerStart) {
			return ConflictSection{}, j, false
		}

		switch state {
		case inOurs:
			if isMarker(text, markerBase) {
				oursTo = j
				baseFrom = j + 1
				state = inBase
			} else if isSeparator(text) {
				oursTo = j
				theirsFrom = j + 1
				state = inTheirs
			} else if isMarker(text, markerEnd) {
				return ConflictSection{}, j + 1, false
			}
		case inBase:
			if isSeparator(text) {
				baseTo = j
				theirsFrom = j + 1
				state = inTheirs
			} else if isMarker(text, markerEnd) || isMarker(text, markerBase) {
				return ConflictSection{}, j + 1, false
			}
		case inTheirs:
			// later separator and base lines belong to theirs
			if isMarker(text, markerEnd) {
				if !lines[j].nl {
					return ConflictSection{}, j + 1, false
				}
				section := ConflictSection{
					Start:        lines[start].start,
					End:          lines[j].end,
					StartLine:    start + 1,
					EndLine:      j + 1,
					OurChanges:   joinLines(lines[oursFrom:oursTo]),
					TheirChanges: joinLines(lines[theirsFrom:j]),
				}
				if baseFrom >= 0 {
					section.BaseContent = joinLines(lines[baseFrom:baseTo])
				}
				return section, j + 1, true
			}
		}
	}

	return ConflictSection{}, len(lines), false
}

// Rule identifies which step of the heuristic picked a side.
type Rule string

const (
	RuleEventDispatch Rule = "event-dispatch"
	RuleComputation   Rule = "named-computation"
	RuleDiagnostic    Rule = "diagnostic-over-stub"
	RuleLineCount     Rule = "line-count"
)

// Heuristic picks one side of a conflict by content richness. It never inspects syntax.
type Heuristic struct {
	DispatchToken    string `mapstructure:"dispatch_token"`
	ComputationToken string `mapstructure:"computation_token"`
	DiagnosticCall   string `mapstructure:"diagnostic_call"`
	StubMarker       string `mapstructure:"stub_marker"`
}

func DefaultHeuristic() Heuristic {
	return Heuristic{
		DispatchToken:    "eventBus",
		ComputationToken: "computeEtaMinutes",
		DiagnosticCall:   "console.error(",
		StubMarker:       "//",
	}
}

type Resolution struct {
	Section ConflictSection
	Choice  ResolutionChoice
	Rule    Rule
	Text    string
}

func (h Heuristic) Resolve(section ConflictSection) Resolution {
	ours, theirs := section.OurChanges, section.TheirChanges

	theirsWins := func(rule Rule) Resolution {
		return Resolution{Section: section, Choice: ChooseTheirs, Rule: rule, Text: theirs}
	}

	if introduces(ours, theirs, h.DispatchToken) {
		return theirsWins(RuleEventDispatch)
	}
	if introduces(ours, theirs, h.ComputationToken) {
		return theirsWins(RuleComputation)
	}
	if h.DiagnosticCall != "" && h.StubMarker != "" &&
		strings.Contains(theirs, h.DiagnosticCall) && strings.Contains(ours, h.StubMarker) {
		return theirsWins(RuleDiagnostic)
	}

	// ties go to theirs
	if countLines(theirs) >= countLines(ours) {
		return theirsWins(RuleLineCount)
	}
	return Resolution{Section: section, Choice: ChooseOurs, Rule: RuleLineCount, Text: ours}
}

func introduces(ours, theirs, token string) bool {
	return token != "" && strings.Contains(theirs, token) && !strings.Contains(ours, token)
}

func countLines(text string) int {
	return strings.Count(strings.TrimSpace(text), "\n") + 1
}

// ResolveContent replaces every conflict section with the side chosen by h, followed by
// a single line break. Text outside sections is copied unchanged.
func ResolveContent(content string, h Heuristic) (string, []Resolution) {
	sections := ParseConflictMarkers(content)
	if len(sections) == 0 {
		return content, nil
	}

	var b strings.Builder
	b.Grow(len(content))

	resolutions := make([]Resolution, 0, len(sections))
	prev := 0
	for _, section := range sections {
		res := h.Resolve(section)
		resolutions = append(resolutions, res)

		b.WriteString(content[prev:section.Start])
		b.WriteString(res.Text)
		b.WriteByte('\n')
		prev = section.End
	}
	b.WriteString(content[prev:])

	return b.String(), resolutions
}
