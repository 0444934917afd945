package narrative

import (
	"regexp"
	"strings"
)

// InsertionPoint is a computed character offset in a narrative where
// missing information should be spliced in.
type InsertionPoint struct {
	Offset       int    `json:"offset"`
	AnchorReason string `json:"anchorReason"`
}

// Field categories, in tie-break priority order: a field whose key matches
// keywords of several categories takes the first match.
const (
	categoryTime     = "time"
	categoryLocation = "location"
	categoryVictim   = "victim"
	categorySuspect  = "suspect"
	categoryProperty = "property"
	categoryGeneric  = "generic"
)

// anchorPhrase is a transition phrase matched case-insensitively against
// the original narrative, so reported offsets are valid byte indexes into
// it. Lowercasing a copy first is not safe here: case folding can change
// rune widths and shift every offset after the folded rune.
type anchorPhrase struct {
	text string
	re   *regexp.Regexp
}

func anchor(text string) anchorPhrase {
	return anchorPhrase{text: text, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(text))}
}

type categoryRule struct {
	name     string
	keywords []string
	// the insertion lands immediately after the first anchor found.
	anchors []anchorPhrase
}

var categoryRules = []categoryRule{
	{
		name:     categoryTime,
		keywords: []string{"time", "date", "when", "hour", "occurred"},
		anchors:  []anchorPhrase{anchor("was dispatched"), anchor("were dispatched"), anchor("received a call")},
	},
	{
		name:     categoryLocation,
		keywords: []string{"location", "address", "place", "scene", "street", "premises"},
		anchors:  []anchorPhrase{anchor("responded to"), anchor("arrived at"), anchor("dispatched to")},
	},
	{
		name:     categoryVictim,
		keywords: []string{"victim", "complainant", "witness", "person", "reporting party"},
		anchors:  []anchorPhrase{anchor("made contact with"), anchor("spoke with"), anchor("interviewed")},
	},
	{
		name:     categorySuspect,
		keywords: []string{"suspect", "subject", "offender", "perpetrator"},
		anchors:  []anchorPhrase{anchor("observed"), anchor("the subject"), anchor("the suspect")},
	},
	{
		name:     categoryProperty,
		keywords: []string{"property", "item", "vehicle", "weapon", "evidence", "stolen"},
		anchors:  []anchorPhrase{anchor("recovered"), anchor("seized"), anchor("collected")},
	},
}

// PlanInsertions computes, for each missing field, where in the narrative
// supplementary text should be spliced. Every field in missingFields gets
// exactly one InsertionPoint; none is silently dropped.
func PlanInsertions(narrative string, missingFields []string) map[string]InsertionPoint {
	points := make(map[string]InsertionPoint, len(missingFields))
	for _, field := range missingFields {
		points[field] = planOne(narrative, field)
	}
	return points
}

func planOne(narrative, field string) InsertionPoint {
	category, rule := classifyField(field)

	if rule != nil {
		for _, a := range rule.anchors {
			if loc := a.re.FindStringIndex(narrative); loc != nil {
				return InsertionPoint{
					Offset:       loc[1],
					AnchorReason: "after phrase " + quote(a.text),
				}
			}
		}
	}

	// No anchor in the text: temporal details lead the narrative, everything
	// else trails it.
	if category == categoryTime {
		return InsertionPoint{Offset: 0, AnchorReason: "start of narrative (temporal field)"}
	}
	return InsertionPoint{Offset: len(narrative), AnchorReason: "end of narrative (no anchor found)"}
}

// classifyField matches a field key against category keywords,
// case-insensitively, first category wins.
func classifyField(field string) (string, *categoryRule) {
	normalized := strings.ToLower(strings.ReplaceAll(field, "_", " "))
	for i := range categoryRules {
		for _, kw := range categoryRules[i].keywords {
			if strings.Contains(normalized, kw) {
				return categoryRules[i].name, &categoryRules[i]
			}
		}
	}
	return categoryGeneric, nil
}

func quote(s string) string {
	return `"` + s + `"`
}
