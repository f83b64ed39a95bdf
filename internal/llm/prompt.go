package llm

// ExtractionPrompt is sent with every document. No response schema accompanies it,
// so the model is free to choose keys based on what it sees.
const ExtractionPrompt = `Analyze this document/image and extract ALL visible text and data fields into a raw structured JSON object.

Instructions:
1. Extract EVERY field, label, table row, and text block visible. Do not summarize; extract exact values.
2. Use the visible label text as the JSON key (normalized to camelCase).
3. If the document contains a table (like grades, items, transactions), extract it as an array of objects.
4. Infer a "documentType" field (e.g., "Statement of Grades", "Passport", "Invoice", "Blueprint") based on the content.
5. Include a "confidenceScore" (0.0 to 1.0) for the extraction quality.
6. STRICTLY return valid JSON. No markdown code blocks.`
