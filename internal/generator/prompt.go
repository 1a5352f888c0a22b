package generator

import (
	"fmt"
	"strings"

	"zcoinsAPI/internal/types/challenge"
)

const (
	BatchSize = 5
	Single    = 1
)

// BuildPrompt asks the model for count challenges shaped like a Definition.
func BuildPrompt(userID string, count int) string {
	icons := make([]string, len(challenge.Icons))
	for i, ic := range challenge.Icons {
		icons[i] = string(ic)
	}

	shape := "a JSON array of exactly %d objects"
	if count == Single {
		shape = "a single JSON object (count %d)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You design short real-world micro challenges for player %s. ", userID)
	b.WriteString("Each challenge must be doable today and provable with one photo.\n")
	fmt.Fprintf(&b, "Respond with "+shape+" and nothing else. Fields:\n", count)
	b.WriteString(`- "title": short English title
- "title_ar": the title in Arabic
- "description": one English sentence saying what to do and what to photograph
- "description_ar": the description in Arabic
- "cost": integer 1-5, zcoins paid to start
- "reward": integer 3-25, zcoins earned on success
- "failure_penalty": integer 1-8, zcoins lost on failure
- "difficulty": one of "easy", "medium", "hard"
- "time_limit": minutes allowed, integer 5-1440
`)
	fmt.Fprintf(&b, "- \"icon\": one of %s\n", strings.Join(icons, ", "))
	b.WriteString("Harder challenges should cost more and reward more.")
	return b.String()
}
