package docgen

import (
	"fmt"
	"strings"

	"github.com/annexahq/annexa/internal/crawl"
)

const draftSystemPrompt = `You are a legal/marketing document drafting assistant for small SaaS companies.
You produce plain-language drafts, not legal advice.
Respond with JSON only, no markdown fences, matching:
{"title": string, "sections": [{"heading": string, "body": string}], "disclaimer": string}`

func draftUserPrompt(req DraftRequest, siteContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a %s for the company %q.\n", docTypes[req.DocType], req.CompanyName)
	fmt.Fprintf(&b, "Company website: %s\n", req.Website)
	if siteContext != "" {
		fmt.Fprintf(&b, "\nCrawled site content for context:\n%s\n", siteContext)
	}
	b.WriteString("\nWrite 6-10 sections. Ground every claim about the product in the crawled content; do not invent features.")
	return b.String()
}

const patchSystemPrompt = `You rewrite landing page copy to convert better.
Respond with JSON only, no markdown fences, matching:
{"hero": string, "subhead": string, "cta": string, "rationale": string}`

func patchUserPrompt(req PatchRequest, page *crawl.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the hero copy for %s.\n", page.URL)
	if req.Goal != "" {
		fmt.Fprintf(&b, "Optimization goal: %s\n", req.Goal)
	}
	if page.Title != "" {
		fmt.Fprintf(&b, "Current title: %s\n", page.Title)
	}
	if page.Description != "" {
		fmt.Fprintf(&b, "Current description: %s\n", page.Description)
	}
	if len(page.Headings) > 0 {
		fmt.Fprintf(&b, "Current headings: %s\n", strings.Join(page.Headings, " | "))
	}
	if page.Text != "" {
		fmt.Fprintf(&b, "\nPage text:\n%s\n", page.Text)
	}
	return b.String()
}
