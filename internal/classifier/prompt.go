package classifier

import (
	"fmt"
	"strings"
)

// buildPrompt assembles the analyst prompt for one company. The model
// is instructed to answer with a single JSON object.
func buildPrompt(company CompanyInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert analyst specializing in the space infrastructure industry. Your task is to analyze companies and determine their involvement in space infrastructure.

Company Information:
- Ticker: %s
- Name: %s
- Description: %s
`, company.Ticker, company.Name, company.Description)

	if company.Context != "" {
		fmt.Fprintf(&b, "\nAdditional Context:\n%s\n", company.Context)
	}

	b.WriteString(`

Space Infrastructure Segments:
1. **Launch**: Launch vehicles, launch services, spaceports
2. **Satellites**: Satellite manufacturing, satellite operators, constellation services
3. **Ground**: Ground stations, tracking systems, antenna systems, data centers
4. **Components**: Propulsion systems, sensors, materials, avionics, spacecraft components

Your Analysis Task:
Analyze this company and provide your assessment in the following JSON format:

{
  "is_space_related": true/false,
  "space_revenue_pct": <number 0-100>,
  "confidence": "high/medium/low",
  "segments": [<list of applicable segments from above>],
  "reasoning": "<brief explanation of your assessment>"
}

Guidelines:
- is_space_related: true if ANY meaningful portion of business involves space infrastructure
- space_revenue_pct: Your estimate of what % of total revenue comes from space activities
  - 100% = Pure-play space company (e.g., Rocket Lab, AST SpaceMobile)
  - 50-99% = Primarily space with some other business
  - 10-49% = Significant space division within larger company
  - 1-9% = Minor space involvement
  - 0% = No space involvement
- confidence:
  - "high" = Clear space focus, good information available
  - "medium" = Some space involvement but uncertain extent
  - "low" = Limited information or ambiguous business model
- segments: List ALL applicable segments (can be multiple)
- reasoning: 2-3 sentences explaining your assessment and space_revenue_pct estimate

Important: Be conservative with space_revenue_pct estimates. Only assign high percentages (>50%) for clear pure-play or space-focused companies.

Return ONLY the JSON object, no other text.
`)

	return b.String()
}
