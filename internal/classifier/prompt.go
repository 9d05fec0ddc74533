package classifier

import (
	"strings"
	"text/template"

	"prodclass/pkg/types"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

var singlePrompt = template.Must(template.New("single").Funcs(promptFuncs).Parse(`
Classify the product into one of the categories: {{join .Categories ", "}}

Product: {{.Product.Name}}
Description: {{.Product.Description}}

Answer in JSON format:
{
  "category": "category_name",
  "confidence": 0.95,
  "reasoning": "why this category was chosen"
}

If you cannot determine the category, use "unknown" with confidence 0.0.
`))

var batchPrompt = template.Must(template.New("batch").Funcs(promptFuncs).Parse(`
Classify every product into one of the categories: {{join .Categories ", "}}
{{range $i, $p := .Products}}
{{inc $i}}. Product: {{$p.Name}}
   Description: {{$p.Description}}
{{end}}
Answer as a JSON array:
[
  {
    "index": 1,
    "category": "category_name",
    "confidence": 0.95,
    "reasoning": "why this category was chosen"
  },
  {
    "index": 2,
    "category": "category_name",
    "confidence": 0.95,
    "reasoning": "why this category was chosen"
  }
]

If you cannot determine a category, use "unknown" with confidence 0.0.
`))

// BuildPrompt renders the single-product prompt. Product text is inserted verbatim.
func BuildPrompt(p types.Product, categories []string) string {
	return render(singlePrompt, map[string]any{"Product": p, "Categories": categories})
}

// BuildBatchPrompt renders the batch prompt, numbering products from 1.
func BuildBatchPrompt(products []types.Product, categories []string) string {
	return render(batchPrompt, map[string]any{"Products": products, "Categories": categories})
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	// The templates only index maps and slices built above; Execute cannot fail.
	_ = t.Execute(&b, data)
	return strings.TrimSpace(b.String())
}
