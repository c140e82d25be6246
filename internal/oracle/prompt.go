package oracle

import (
	"fmt"

	"docledger/internal/domain"
)

// BuildStructurePrompt returns the prompt that rewrites converter output into
// clean, standardized GitHub-Flavored Markdown.
func BuildStructurePrompt(markdown string) string {
	return `You are a document formatter.
Your job is to rewrite the given Markdown content into a clean, standardized format.

Rules:
- Use GitHub-Flavored Markdown (GFM).
- Preserve ALL information (headings, tables, bullet points).
- Tables MUST be perfectly aligned with headers and separators.
- Always include a header row for tables.
- Do NOT invent new values, only clean formatting.
- Avoid wrapping tables inside code blocks.

Document content:
` + markdown
}

// BuildMetadataPrompt returns the prompt that extracts file type, language,
// client name, and table layout from a converted document.
func BuildMetadataPrompt(filename, markdown string) string {
	return fmt.Sprintf(`You are a metadata extractor.

Given the document filename and Markdown content, return ONLY a JSON object with the following fields:

{
  "file_type": "<file extension from filename, e.g. pdf, xlsx, docx>",
  "language": "<document language>",
  "client_name": "<company or client name>",
  "layout": ["<column1>", "<column2>", "<column3>", ...]
}

Rules:
- file_type MUST be derived from the filename extension only (lowercase, no dot).
- Detect client_name from filename OR from document header (company name, client name, etc.).
- "layout" must be an array of column headers from the MAIN tabular section of the document. If no tables, return [].
- Return ONLY valid JSON, no explanations.

Filename: %s

Markdown:
%s`, filename, markdown)
}

// BuildExtractionPrompt returns the schema-extraction prompt. When a suggested
// instruction is present it leads the prompt; otherwise the default extraction
// instruction is used.
func BuildExtractionPrompt(schemaJSON, markdown, suggestedPrompt string) string {
	if suggestedPrompt != "" {
		return fmt.Sprintf(`%s
The JSON must strictly follow this schema:
%s

Document:
%s`, suggestedPrompt, schemaJSON, markdown)
	}
	return fmt.Sprintf(`Extract structured data from the following document into JSON.

The JSON must strictly follow this schema:

Schema:

%s

Document:
%s`, schemaJSON, markdown)
}

// BuildTryPrompt returns the prompt for an ephemeral, caller-supplied
// instruction run against caller-supplied document text.
func BuildTryPrompt(instruction, document, schemaJSON string) string {
	return fmt.Sprintf(`Instruction: %s
Document: %s
Extract data into JSON with this schema:
%s`, instruction, document, schemaJSON)
}

// BuildLayoutComparePrompt returns the prompt asking for a 0-100 similarity
// score between two table layouts.
func BuildLayoutComparePrompt(a, b domain.Layout) string {
	return fmt.Sprintf(`Compare these two document layouts and return a similarity score from 0 to 100.
Consider column names, data types, and overall structure.
Return ONLY a number between 0-100, no explanations.

Layout 1: %s
Layout 2: %s

Similarity score (0-100):`, a.Serialize(), b.Serialize())
}
