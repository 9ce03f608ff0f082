package analyzer

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docuproof/internal/document"
)

type levelGuidance struct {
	requirements string
	policy       string
	stance       string
}

var guidance = map[document.Level]levelGuidance{
	document.LevelMinor: {
		requirements: `MINOR LEVEL REQUIREMENTS:
- PROOFREADING: fix grammar errors, spelling mistakes and punctuation issues
- MISSING INFORMATION: identify gaps, unclear references and incomplete sentences
- WORDING & STYLE: improve word choice, terminology consistency and basic flow
- Scope: minimal corrections that keep the original structure and voice
- Goal: clean, error-free text with basic polish`,
		policy: `- CONSERVATIVE: only remove text that is clearly duplicated or factually wrong
- PRESERVE: keep all meaningful information and a similar length
- MINIMAL: make the fewest changes needed for correctness`,
		stance: "be conservative and minimal",
	},
	document.LevelMedium: {
		requirements: `MEDIUM LEVEL REQUIREMENTS:
- COMPREHENSIVE EDITING: fix every error and also improve clarity and engagement
- STYLE ENHANCEMENT: improve tone, flow, readability and professional quality
- CONTENT IMPROVEMENT: strengthen arguments, add transitions, improve organization
- REWRITING: moderate restructuring of sentences and paragraphs
- Goal: noticeably better text that is more engaging and effective`,
		policy: `- MODERATE: remove redundant text and improve structure where needed
- FLEXIBLE: adjust length moderately for clarity and flow
- BALANCED: meaningful improvements that respect the original content`,
		stance: "be balanced but impactful",
	},
	document.LevelMajor: {
		requirements: `MAJOR LEVEL REQUIREMENTS:
- AGGRESSIVE REWRITING: reimagine and restructure the content
- STORYTELLING: turn the section into a compelling, engaging narrative
- COMPREHENSIVE TRANSFORMATION: reorganize and elevate every aspect
- LENGTH FLEXIBILITY: expand or condense as needed for maximum impact
- Goal: dramatically better writing than the original`,
		policy: `- AGGRESSIVE: remove, restructure and rewrite extensively
- TRANSFORMATIVE: expand or condense significantly where it helps
- BOLD: prefer quality over preservation`,
		stance: "be aggressive and transformative",
	},
}

// ResponseSchema is the JSON shape the generator is asked to return.
const ResponseSchema = `{
  "consistencyIssues": [
    {
      "type": "terminology|tone|style|formatting",
      "issue": "brief description",
      "original": "original text",
      "suggested": "corrected text",
      "explanation": "why this fix"
    }
  ],
  "missingInformation": [
    {
      "location": "where in text",
      "gap": "what's missing",
      "suggestion": "what to add",
      "reasoning": "why needed"
    }
  ],
  "proofreadingFixes": [
    {
      "type": "grammar|spelling|punctuation|syntax|word_choice",
      "original": "incorrect text",
      "suggested": "corrected text",
      "explanation": "why better"
    }
  ],
  "cleanVersion": "corrected text with all fixes applied",
  "summary": "brief summary of changes made"
}`

// BuildPrompt renders the instructions for level and pairs the chunk with
// the whole document as context.
func BuildPrompt(chunk document.Chunk, fullText string, level document.Level) Prompt {
	g, ok := guidance[level]
	if !ok {
		level = document.LevelMedium
		g = guidance[level]
	}

	var sys strings.Builder
	sys.WriteString("You are a professional document editor. Analyze the given text section and respond with valid JSON only.\n\n")
	fmt.Fprintf(&sys, "ANALYSIS LEVEL: %s\n\n", strings.ToUpper(string(level)))
	sys.WriteString(g.requirements)
	sys.WriteString("\n\nANALYSIS CATEGORIES:\n")
	sys.WriteString("1. Consistency: terminology inconsistencies, tone variations, style changes, formatting issues\n")
	sys.WriteString("2. Missing Information: incomplete sentences, unclear references, missing context, gaps\n")
	sys.WriteString("3. Proofreading: grammar errors, spelling mistakes, punctuation issues, better word choices\n\n")
	sys.WriteString("TEXT MODIFICATION POLICY:\n")
	sys.WriteString(g.policy)
	sys.WriteString("\n\nCRITICAL INSTRUCTIONS:\n")
	sys.WriteString("- Respond with ONLY valid JSON: no markdown, no explanations, no other text\n")
	sys.WriteString("- Do not include any text before or after the JSON\n")
	fmt.Fprintf(&sys, "- Apply the analysis level consistently: %s\n\n", g.stance)
	sys.WriteString("JSON SCHEMA (respond with this exact structure):\n")
	sys.WriteString(ResponseSchema)

	var user strings.Builder
	user.WriteString("Please check consistency of this chunk/chapter:\n\n")
	user.WriteString("<chapter_to_work_on>\n")
	user.WriteString(chunk.Content)
	user.WriteString("\n</chapter_to_work_on>\n\n")
	user.WriteString("Based on the entire context:\n\n")
	user.WriteString("<entire_context>\n")
	user.WriteString(fullText)
	user.WriteString("\n</entire_context>\n\n")
	fmt.Fprintf(&user, "Analyze this section for consistency with the context, missing information, and proofreading needs according to the %s level requirements.\n\n", level)
	user.WriteString("Output should be JSON only, including the modified version of the chapter to work on.")

	return Prompt{System: sys.String(), User: user.String()}
}
