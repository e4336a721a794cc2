package conversation

import (
	"fmt"
	"strings"

	"github.com/workmatch/workmatch/internal/trigger"
)

const openingMessage = "Hi! I'm here to help you find your next role. " +
	"Tell me a bit about what you're looking for, or just say hello and " +
	"I'll ask a few questions."

const employerOpeningMessage = "Hi! Describe the role you're hiring for and " +
	"I'll look for matching candidates. Skills, experience level, and job " +
	"title all help."

// resultIntros are keyed by the trigger reason so the handoff into results
// reads naturally instead of abruptly.
var resultIntros = map[trigger.Reason]string{
	trigger.ReasonMatchScoreHigh: "I've got a clear picture of what you're after. Here's what stands out:",
	trigger.ReasonUserRequest:    "Sure, here's what I found based on our conversation so far:",
	trigger.ReasonTurnLimit:      "We've covered a lot of ground. Let me show you what I have:",
	trigger.ReasonScoreStagnant:  "I think I have enough to work with. Here are some options:",
}

const noResultsMessage = "I couldn't find anything matching right now. " +
	"New openings come in all the time, so it's worth checking back, or we " +
	"can broaden what you're looking for."

const noCandidatesMessage = "No matching candidates at the moment. New " +
	"profiles appear regularly, or we could relax some requirements."

func resultIntro(reason trigger.Reason) string {
	if intro, ok := resultIntros[reason]; ok {
		return intro
	}
	return "Here's what I found:"
}

// formatRecommendations renders the recommendation list for the assistant
// message body.
func formatRecommendations(recs []Recommendation) string {
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s", i+1, rec.Title)
		if rec.Detail != "" {
			fmt.Fprintf(&b, " at %s", rec.Detail)
		}
		fmt.Fprintf(&b, " (match %d%%)", int(rec.Score))
		if rec.Reason != "" {
			fmt.Fprintf(&b, "\n   %s", rec.Reason)
		}
		if i < len(recs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// employerSummary describes what was understood from the employer's message
// before the candidate list.
func employerSummary(title string, skills []string, degraded bool) string {
	var parts []string
	if title != "" {
		parts = append(parts, fmt.Sprintf("role: %s", title))
	}
	if len(skills) > 0 {
		parts = append(parts, fmt.Sprintf("skills: %s", strings.Join(skills, ", ")))
	}

	if len(parts) == 0 {
		return "Here's who I found based on your description:"
	}
	summary := fmt.Sprintf("Looking for %s.", strings.Join(parts, "; "))
	if degraded {
		summary += " (I matched on keywords this time.)"
	}
	return summary + " Here's who I found:"
}
