package prompt

const epsIntroTemplate = `
	The attached text is a structural report of the EPS vector file %q, not an image.
	Write the metadata from what the report reveals about the artwork.

	Known details:
	- Document type: %s
	- Embedded title: %s
	- Creator application: %s
	- Dimensions: %s
	- Estimated objects: %d
	- Color models: %s
	- Fonts: %s
`

const freepikTemplate = `
	Generate metadata for Freepik:
	- title: %d to %d words, descriptive and specific, no punctuation other than spaces
	- prompt: a detailed text-to-image prompt that would recreate this content, covering subject, style, composition, colors and lighting
	- keywords: %d to %d relevant keywords, most important first, each keyword lowercase
`

const shutterstockTemplate = `
	Generate metadata for Shutterstock:
	- description: a single sentence of %d to %d words that works as both title and description, stating what is shown and where
	- keywords: %d to %d relevant keywords, most important first, no duplicates
`

const adobeStockTemplate = `
	Generate metadata for Adobe Stock:
	- title: %d to %d words describing the content, no brand names and no keyword stuffing
	- keywords: %d to %d relevant keywords ordered by importance, the first ten being the most relevant
`

const genericTemplate = `
	Generate stock metadata suitable for %s:
	- title: %d to %d words, descriptive and specific
	- description: %d to %d words describing subject, setting, mood and possible uses
	- keywords: %d to %d relevant keywords, most important first, no duplicates
`

const imageToPromptTemplate = `
	%s

	Write a single detailed text-to-image prompt that would recreate this content with an AI image generator.
	Cover subject, style, composition, colors, lighting and mood. Do not mention that it is a stock asset.
`

const responseFormatTemplate = `
	Respond ONLY with a JSON object containing exactly these fields: %s.
	Example: %s
	Do not wrap the JSON in markdown and do not add any other text.
`
