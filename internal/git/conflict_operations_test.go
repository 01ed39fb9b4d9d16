package git

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConflictMarkersNoMarkers(t *testing.T) {
	assert.Empty(t, ParseConflictMarkers(""))
	assert.Empty(t, ParseConflictMarkers("const a = 1;\nconst b = 2;\n"))
}

func TestParseConflictMarkersSingle(t *testing.T) {
	content := "before\n<<<<<<< HEAD\nfoo\nfoo2\n=======\nbar\n>>>>>>> branch\nafter\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 1)

	s := sections[0]
	assert.Equal(t, "foo\nfoo2", s.OurChanges)
	assert.Equal(t, "bar", s.TheirChanges)
	assert.Equal(t, "", s.BaseContent)
	assert.Equal(t, 2, s.StartLine)
	assert.Equal(t, 7, s.EndLine)
	assert.Equal(t, "<<<<<<< HEAD\nfoo\nfoo2\n=======\nbar\n>>>>>>> branch\n", content[s.Start:s.End])
}

func TestParseConflictMarkersMultiple(t *testing.T) {
	content := "<<<<<<< HEAD\na\n=======\nb\n>>>>>>> x\nmid\n<<<<<<< ours\nc\n=======\nd\ne\n>>>>>>> y\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 2)
	assert.Equal(t, "a", sections[0].OurChanges)
	assert.Equal(t, "c", sections[1].OurChanges)
	assert.Equal(t, "d\ne", sections[1].TheirChanges)
	assert.Less(t, sections[0].End, sections[1].Start)
}

func TestParseConflictMarkersIsRestartable(t *testing.T) {
	content := "<<<<<<< HEAD\na\n=======\nb\n>>>>>>> x\n"
	assert.Equal(t, ParseConflictMarkers(content), ParseConflictMarkers(content))
}

func TestParseConflictMarkersDiff3Base(t *testing.T) {
	content := "<<<<<<< HEAD\nours\n||||||| base\norig\n=======\ntheirs\n>>>>>>> feature\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "ours", sections[0].OurChanges)
	assert.Equal(t, "orig", sections[0].BaseContent)
	assert.Equal(t, "theirs", sections[0].TheirChanges)
}

func TestParseConflictMarkersNestedStartAbandonsOuter(t *testing.T) {
	content := "<<<<<<< outer\nx\n<<<<<<< inner\na\n=======\nb\n>>>>>>> inner\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "a", sections[0].OurChanges)
	assert.Equal(t, 3, sections[0].StartLine)
}

func TestParseConflictMarkersMalformed(t *testing.T) {
	tests := map[string]string{
		"missing separator": "<<<<<<< HEAD\na\n>>>>>>> x\n",
		"missing end":       "<<<<<<< HEAD\na\n=======\nb\n",
		"end without break": "<<<<<<< HEAD\na\n=======\nb\n>>>>>>> x",
		"marker not alone":  "<<<<<<<HEAD\na\n=======\nb\n>>>>>>> x\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, ParseConflictMarkers(content))
		})
	}
}

func TestParseConflictMarkersSeparatorInsideTheirs(t *testing.T) {
	content := "<<<<<<< HEAD\na\n=======\nTitle\n=======\n||||||| banner\nb\n>>>>>>> feature\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "a", sections[0].OurChanges)
	assert.Equal(t, "Title\n=======\n||||||| banner\nb", sections[0].TheirChanges)

	out, resolutions := ResolveContent("<<<<<<< HEAD\na\n=======\nTitle\n=======\nb\n>>>>>>> feature\n", DefaultHeuristic())
	require.Len(t, resolutions, 1)
	assert.Equal(t, "Title\n=======\nb\n", out)
}

func TestParseConflictMarkersCRLF(t *testing.T) {
	content := "<<<<<<< HEAD\r\na\r\n=======\r\nb\r\n>>>>>>> x\r\n"

	sections := ParseConflictMarkers(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "a\r", sections[0].OurChanges)
	assert.Equal(t, "b\r", sections[0].TheirChanges)
}

func TestHeuristicResolve(t *testing.T) {
	h := DefaultHeuristic()

	tests := []struct {
		name   string
		ours   string
		theirs string
		choice ResolutionChoice
		rule   Rule
	}{
		{
			name:   "event dispatch beats line count",
			ours:   "a();\nb();\nc();\nd();",
			theirs: "eventBus.emit('queue');",
			choice: ChooseTheirs,
			rule:   RuleEventDispatch,
		},
		{
			name:   "dispatch token on both sides falls through",
			ours:   "eventBus.on('x');\ny();",
			theirs: "eventBus.emit('x');",
			choice: ChooseOurs,
			rule:   RuleLineCount,
		},
		{
			name:   "named computation",
			ours:   "let eta = 0;\nlet other = 1;",
			theirs: "const eta = computeEtaMinutes(q);",
			choice: ChooseTheirs,
			rule:   RuleComputation,
		},
		{
			name:   "diagnostic over stub",
			ours:   "// TODO\nfallback();\nmore();",
			theirs: "console.error('failed');",
			choice: ChooseTheirs,
			rule:   RuleDiagnostic,
		},
		{
			name:   "tie goes to theirs",
			ours:   "foo",
			theirs: "bar",
			choice: ChooseTheirs,
			rule:   RuleLineCount,
		},
		{
			name:   "longer ours wins",
			ours:   "a\nb\nc",
			theirs: "d",
			choice: ChooseOurs,
			rule:   RuleLineCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Resolve(ConflictSection{OurChanges: tt.ours, TheirChanges: tt.theirs})
			assert.Equal(t, tt.choice, res.Choice)
			assert.Equal(t, tt.rule, res.Rule)
			if tt.choice == ChooseTheirs {
				assert.Equal(t, tt.theirs, res.Text)
			} else {
				assert.Equal(t, tt.ours, res.Text)
			}
		})
	}
}

func TestHeuristicCustomTokens(t *testing.T) {
	h := Heuristic{DispatchToken: "dispatch("}

	res := h.Resolve(ConflictSection{OurChanges: "a\nb\nc", TheirChanges: "dispatch(x)"})
	assert.Equal(t, ChooseTheirs, res.Choice)
	assert.Equal(t, RuleEventDispatch, res.Rule)

	// empty tokens never match
	res = h.Resolve(ConflictSection{OurChanges: "a\nb", TheirChanges: "c"})
	assert.Equal(t, ChooseOurs, res.Choice)
}

func TestResolveContentTieExample(t *testing.T) {
	out, resolutions := ResolveContent("<<<<<<< HEAD\nfoo\n=======\nbar\n>>>>>>> branch\n", DefaultHeuristic())

	assert.Equal(t, "bar\n", out)
	require.Len(t, resolutions, 1)
	assert.Equal(t, ChooseTheirs, resolutions[0].Choice)
}

func TestResolveContentStubExample(t *testing.T) {
	content := "<<<<<<< HEAD\n// TODO\n=======\nconsole.error('x');\nconsole.log('y');\n>>>>>>> fix\n"

	out, resolutions := ResolveContent(content, DefaultHeuristic())

	assert.Equal(t, "console.error('x');\nconsole.log('y');\n", out)
	require.Len(t, resolutions, 1)
	assert.Equal(t, RuleDiagnostic, resolutions[0].Rule)
}

func TestResolveContentKeepsSurroundingText(t *testing.T) {
	content := "import a;\n<<<<<<< HEAD\nx\ny\n=======\nz\n>>>>>>> b\nexport a;\n<<<<<<< HEAD\n1\n=======\n2\n>>>>>>> b\ntail"

	out, resolutions := ResolveContent(content, DefaultHeuristic())

	assert.Equal(t, "import a;\nx\ny\nexport a;\n2\ntail", out)
	assert.Len(t, resolutions, 2)
	for _, marker := range []string{"<<<<<<<", "=======", ">>>>>>>"} {
		assert.False(t, strings.Contains(out, marker), marker)
	}
}

func TestResolveContentIdempotent(t *testing.T) {
	content := "<<<<<<< HEAD\nfoo\n=======\nbar\n>>>>>>> branch\n"
	h := DefaultHeuristic()

	once, _ := ResolveContent(content, h)
	twice, resolutions := ResolveContent(once, h)

	assert.Equal(t, once, twice)
	assert.Empty(t, resolutions)
}

func TestResolutionChoiceString(t *testing.T) {
	assert.Equal(t, "ours", ChooseOurs.String())
	assert.Equal(t, "theirs", ChooseTheirs.String())
}
