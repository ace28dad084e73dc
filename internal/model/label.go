package model

import "strings"

// Label is the closed set of triage classifications.
type Label int

const (
	// LabelUnknown is the fallback whenever no recognised label could be
	// obtained. It is never routed.
	LabelUnknown Label = iota
	LabelActionRequired
	LabelSpam
	LabelLowPriority
)

// Labels lists the classifications a model may answer with, in prompt order.
var Labels = []Label{LabelActionRequired, LabelSpam, LabelLowPriority}

var labelNames = map[Label]string{
	LabelUnknown:        "Unknown",
	LabelActionRequired: "Action Required",
	LabelSpam:           "Spam",
	LabelLowPriority:    "Low Priority",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return labelNames[LabelUnknown]
}

// Routable reports whether messages with this label go to the router.
func (l Label) Routable() bool {
	return l == LabelActionRequired
}

// ParseLabel matches s case-insensitively against the canonical label
// names. Anything else, including "Unknown", yields false.
func ParseLabel(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(s, l.String()) {
			return l, true
		}
	}
	return LabelUnknown, false
}

// LabelFromString is the inverse of String for stored values, including
// "Unknown".
func LabelFromString(s string) Label {
	if l, ok := ParseLabel(s); ok {
		return l
	}
	return LabelUnknown
}
