package llm

import (
	"fmt"
	"strings"

	"github.com/gitgud-app/gitgud/internal/github"
)

var intensityInstructions = map[Intensity]string{
	IntensityMild:   "light-hearted and friendly",
	IntensityMedium: "playfully critical but constructive",
	IntensitySpicy:  "sharp and witty but still respectful",
}

func buildRoastPrompt(signals *github.Signals, intensity Intensity) string {
	var repoList strings.Builder
	for _, repo := range signals.TopRepos {
		lang := "No language"
		if repo.Language != nil {
			lang = *repo.Language
		}
		fmt.Fprintf(&repoList, "- %s (%s, %d stars, %d forks, updated %s)",
			repo.Name, lang, repo.Stars, repo.Forks, repo.UpdatedAt)
		if repo.Description != nil {
			fmt.Fprintf(&repoList, " - %s", *repo.Description)
		}
		if repo.ReadmeSnippet != nil {
			snippet := *repo.ReadmeSnippet
			if len(snippet) > 300 {
				snippet = snippet[:300]
			}
			fmt.Fprintf(&repoList, "\n  README snippet: %s...", snippet)
		}
		repoList.WriteString("\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are analyzing a GitHub developer profile. Generate a %s roast, serious improvement advice, and a developer personality profile.\n\n",
		intensityInstructions[intensity])
	fmt.Fprintf(&b, "GitHub Profile Data:\n")
	fmt.Fprintf(&b, "- Public repos: %d\n", signals.Profile.PublicRepos)
	fmt.Fprintf(&b, "- Followers: %d\n", signals.Profile.Followers)
	fmt.Fprintf(&b, "- Account created: %s\n", signals.Profile.CreatedAt)
	if signals.Profile.Bio != nil {
		fmt.Fprintf(&b, "- Bio: %s\n", *signals.Profile.Bio)
	}
	if signals.Profile.Location != nil {
		fmt.Fprintf(&b, "- Location: %s\n", *signals.Profile.Location)
	}
	if signals.Profile.Company != nil {
		fmt.Fprintf(&b, "- Company: %s\n", *signals.Profile.Company)
	}

	fmt.Fprintf(&b, "\nTop Repositories:\n%s\n", repoList.String())

	b.WriteString(`IMPORTANT CONSTRAINTS:
1. Output MUST be valid JSON only, no markdown formatting, no code blocks.
2. The roast should be tech-focused and avoid guessing personal attributes or doxxing.
3. Advice must reference only observed signals (repos, languages, recency, activity patterns).
4. Keep roast length to 2-4 sentences.
5. Provide 3-7 improvement advice bullets.
6. Personality profile should be based on code patterns, not personal traits.

Output format (JSON only):
{
  "roast": "string",
  "advice": ["string", "string", ...],
  "profile": {
    "archetype": "string (e.g., 'The Experimentalist', 'The Maintainer', 'The Specialist', etc.)",
    "strengths": ["string", "string", ...],
    "blind_spots": ["string", "string", ...]
  }
}`)

	return b.String()
}

func buildComparePrompt(user1, user2 UserSummary, language string) string {
	reasoningLang := "English"
	if language != "en" {
		reasoningLang = fmt.Sprintf("the language with ISO code %s", language)
	}

	var b strings.Builder
	b.WriteString(`You are an expert judge comparing two GitHub developers. Analyze both profiles and determine which developer is better based on:
- Code quality and project impact
- Technical skills and diversity
- Community engagement (stars, forks, followers)
- Consistency and activity
- Innovation and creativity

`)
	writeCompareUser(&b, 1, user1)
	writeCompareUser(&b, 2, user2)

	fmt.Fprintf(&b, `IMPORTANT:
1. Output MUST be valid JSON only, no markdown formatting, no code blocks.
2. Provide a score from 0-100 for each user.
3. Determine the winner: "user1", "user2", or "tie".
4. Provide detailed reasoning in %s.
5. Be fair and consider multiple factors, not just follower count.

Output format (JSON only):
{
  "winner": "user1" | "user2" | "tie",
  "reasoning": "string (detailed explanation in the requested language)",
  "score_user1": number (0-100),
  "score_user2": number (0-100)
}`, reasoningLang)

	return b.String()
}

func writeCompareUser(b *strings.Builder, n int, u UserSummary) {
	topRepos := make([]string, 0, len(u.Signals.TopRepos))
	for _, r := range u.Signals.TopRepos {
		topRepos = append(topRepos, fmt.Sprintf("%s (%d stars)", r.Name, r.Stars))
	}

	fmt.Fprintf(b, "User %d (%s):\n", n, u.Username)
	fmt.Fprintf(b, "- Public repos: %d\n", u.Signals.Profile.PublicRepos)
	fmt.Fprintf(b, "- Followers: %d\n", u.Signals.Profile.Followers)
	fmt.Fprintf(b, "- Top repos: %s\n", strings.Join(topRepos, ", "))
	fmt.Fprintf(b, "- Roast summary: %s\n", u.Roast.Roast)
	fmt.Fprintf(b, "- Archetype: %s\n\n", u.Roast.Profile.Archetype)
}
