package generator

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/coverletter/internal/language"
)

const promptTemplate = `You are an HR assistant. You MUST write a cover letter in %[1]s.
CRITICAL: The entire letter MUST be written in %[1]s.

Job offer (detected language: %[2]s):
%[3]s

CV:
%[4]s

Example of how to start in %[1]s:
%[5]s

Instructions:
- Write the letter ONLY in %[1]s
- Objective: Around 1000 characters
- Structure: Motivated introduction, profile/position match, conclusion with professional closing
- Use a professional tone adapted to the country's culture
- Ensure every single sentence is in %[1]s
- Start directly with the letter content, no explanations
- Write ONLY the letter content, no LaTeX formatting

IMPORTANT: If the job offer is in English, write in English. If in French, write in French.
RESPOND ONLY IN %[6]s!`

// BuildPrompt assembles the language-constrained instruction for the model.
// The posting and résumé are embedded verbatim.
func BuildPrompt(resumeText, postingText, code string) string {
	name := language.Name(code)
	return fmt.Sprintf(promptTemplate,
		name,
		code,
		postingText,
		resumeText,
		language.ExampleOpening(code),
		strings.ToUpper(name),
	)
}
