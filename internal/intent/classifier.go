// Package intent decides whether a chat message asks about HR policy or HR data.
package intent

import (
	"fmt"
	"strings"
)

// Classification is the transient result of Classify.
type Classification struct {
	IsPolicy bool
	Reason   string
}

// Explicit handbook vocabulary. Checked first; any match is a policy question.
var explicitPolicyKeywords = []string{
	"leave policy",
	"attendance policy",
	"dress code policy",
	"dress code",
	"code of conduct",
	"probation policy",
	"confirmation policy",
	"appraisal policy",
	"performance policy",
	"review policy",
	"travel policy",
	"benefits policy",
	"welfare policy",
	"employee handbook",
	"hr handbook",
	"hr policy",
	"company policy",
	"work from home policy",
	"wfh policy",
	"holiday policy",
	"salary policy",
	"increment policy",
	"bonus policy",
	"grievance policy",
	"separation policy",
	"retirement policy",
	"notice period policy",
}

var policyPhrases = []string{
	"what is the policy",
	"what are the rules",
	"what is the procedure",
	"what are the procedures",
	"explain the policy",
	"tell me about the policy",
	"what are the guidelines",
	"how does the policy work",
	"policy regarding",
	"rules regarding",
	"rules for",
	"guidelines for",
	"procedure for",
	"what are my benefits",
	"what benefits do i get",
	"what benefits am i entitled",
	"how many days of leave am i entitled",
	"how many days of leave do i get",
	"how many days of leave can i",
	"what is my leave entitlement",
	"am i allowed to",
	"can i take",
	"what is the notice period",
	"what is the probation period",
	"how long is probation",
	"how long is notice period",
}

// Phrases that mark a request for records rather than rules.
var dataIndicators = []string{
	"show me",
	"display",
	"list all",
	"list the",
	"get me",
	"find",
	"search for",
	"report for",
	"report of",
	"'s report",
	"'s leave",
	"'s attendance",
	"'s details",
	"'s records",
	"'s history",
	"how many employees",
	"how many staff",
	"count of",
	"total number",
	"who took",
	"who has",
	"which employees",
	"employees who",
	"staff who",
}

// Classify applies explicit keywords, then policy phrasings, then data
// indicators. Within each list the first listed match wins.
func Classify(message string) Classification {
	lower := strings.ToLower(message)

	for _, keyword := range explicitPolicyKeywords {
		if strings.Contains(lower, keyword) {
			return Classification{IsPolicy: true, Reason: fmt.Sprintf("Contains explicit policy keyword: %q", keyword)}
		}
	}

	for _, phrase := range policyPhrases {
		if strings.Contains(lower, phrase) {
			return Classification{IsPolicy: true, Reason: fmt.Sprintf("Contains policy phrase: %q", phrase)}
		}
	}

	for _, indicator := range dataIndicators {
		if strings.Contains(lower, indicator) {
			return Classification{IsPolicy: false, Reason: fmt.Sprintf("Contains data indicator: %q", indicator)}
		}
	}

	return Classification{IsPolicy: false, Reason: "No policy keywords or phrases detected"}
}
