// Package prompts builds LLM prompts for semantic dimension selection.
package prompts

import (
	"fmt"
	"strings"
)

// ColumnContext provides column details for dimension selection.
type ColumnContext struct {
	Name          string
	DataType      string
	Description   string
	SampleValues  []string
	UniqueCount   *int64
	MinValue      string
	MaxValue      string
	Note          string
	Critical      bool
	AllowedValues []string
}

// BuildDimensionSelectionPrompt creates the per-column prompt asking the
// reasoning service which quality dimensions to check. The response format
// matches DimensionSelectionResponse in the selector package.
func BuildDimensionSelectionPrompt(col ColumnContext) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze this column from a safety incident reporting system and determine which data quality dimensions should be checked:\n\n")

	prompt.WriteString("COLUMN INFORMATION:\n")
	prompt.WriteString(fmt.Sprintf("- Column Name: %s\n", col.Name))

	description := col.Description
	if description == "" {
		description = "No description available"
	}
	prompt.WriteString(fmt.Sprintf("- Description: %q\n", description))

	dataType := col.DataType
	if dataType == "" {
		dataType = "Unknown"
	}
	prompt.WriteString(fmt.Sprintf("- Data Type: %s\n", dataType))

	if len(col.SampleValues) > 0 {
		samples := col.SampleValues
		if len(samples) > 10 {
			samples = samples[:10]
		}
		prompt.WriteString(fmt.Sprintf("- Sample Values: %s\n", strings.Join(samples, ", ")))
	} else {
		prompt.WriteString("- Sample Values: None available\n")
	}

	if col.UniqueCount != nil {
		prompt.WriteString(fmt.Sprintf("- Unique Count: %d\n", *col.UniqueCount))
	} else {
		prompt.WriteString("- Unique Count: Unknown\n")
	}

	if col.MinValue != "" || col.MaxValue != "" {
		prompt.WriteString(fmt.Sprintf("- Value Range: %s to %s\n",
			valueOrDefault(col.MinValue, "Not specified"),
			valueOrDefault(col.MaxValue, "Not specified")))
	}

	if len(col.AllowedValues) > 0 {
		prompt.WriteString(fmt.Sprintf("- Allowed Values: %s\n", strings.Join(col.AllowedValues, ", ")))
	}

	if col.Critical {
		prompt.WriteString("- This field is CRITICAL for incident analysis\n")
	}

	if col.Note != "" {
		prompt.WriteString(fmt.Sprintf("- Additional Notes: %s\n", col.Note))
	}

	prompt.WriteString(`
DATA QUALITY DIMENSIONS TO CONSIDER:
1. COMPLETENESS: Check for missing/null values
2. UNIQUENESS: Check if values should be unique
3. CONSISTENCY: Check data patterns and formats
4. VALIDITY: Check against business rules and constraints
5. TIMELINESS: Check date freshness and recency

ANALYSIS INSTRUCTIONS:
For each dimension, determine if it should be checked based on the column's semantic meaning:

- If description contains "unique identifier" -> Check COMPLETENESS, UNIQUENESS, VALIDITY
- If description contains "if applicable" or "optional" -> Skip COMPLETENESS or reduce penalty
- If description contains "date when" or "timestamp" -> Check COMPLETENESS, CONSISTENCY, VALIDITY, TIMELINESS
- If description contains "type of" or "indicates whether" -> Check COMPLETENESS, CONSISTENCY, VALIDITY
- If description contains "name of" -> Check COMPLETENESS, CONSISTENCY, VALIDITY
- If field has a limited allowed value set -> Check VALIDITY against the allowed list
- If field is free text with a high unique count -> Focus on CONSISTENCY patterns
- Critical fields must always check COMPLETENESS and VALIDITY

RESPONSE FORMAT:
Return a JSON object with this exact structure:
{
  "dimensions_to_check": ["dimension1", "dimension2"],
  "dimensions_to_skip": ["dimension3", "dimension4"],
  "reasoning": {
    "completeness": "reason for checking/skipping completeness",
    "uniqueness": "reason for checking/skipping uniqueness",
    "consistency": "reason for checking/skipping consistency",
    "validity": "reason for checking/skipping validity",
    "timeliness": "reason for checking/skipping timeliness"
  },
  "priority": "critical|high|medium|low"
}

Return ONLY the JSON, no additional text.
`)

	return prompt.String()
}

// BuildDimensionSelectionSystemMessage returns the system message for the LLM.
func BuildDimensionSelectionSystemMessage() string {
	return `You are a data quality expert specializing in safety incident management systems. Analyze column definitions and determine which data quality dimensions are relevant.`
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
