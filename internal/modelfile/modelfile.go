// Package modelfile renders runtime model configuration files and the
// presets used by the optimize and finetune commands.
package modelfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// BaseGGUF is the quantized base weights every preset starts from.
const BaseGGUF = "hf.co/t-tech/T-pro-it-2.0-GGUF:Q2_K"

// Params are the sampling and placement parameters written as PARAMETER lines.
// Zero values are omitted.
type Params struct {
	NumCtx        int
	NumGPU        int
	NumThread     int
	Temperature   float64
	TopK          int
	TopP          float64
	RepeatPenalty float64
	Seed          *int
}

// Message is one example conversation turn.
type Message struct {
	Role    string
	Content string
}

// Spec describes a Modelfile.
type Spec struct {
	From     string
	Comment  string
	Params   Params
	System   string
	Template string
	Messages []Message
}

// Render produces the Modelfile text for s.
func Render(s Spec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", s.From)
	if s.Comment != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(s.Comment, "\n") {
			fmt.Fprintf(&b, "# %s\n", line)
		}
	}
	b.WriteString("\n")
	p := s.Params
	param := func(name, v string) { fmt.Fprintf(&b, "PARAMETER %s %s\n", name, v) }
	if p.NumCtx > 0 {
		param("num_ctx", strconv.Itoa(p.NumCtx))
	}
	if p.NumGPU > 0 {
		param("num_gpu", strconv.Itoa(p.NumGPU))
	}
	if p.NumThread > 0 {
		param("num_thread", strconv.Itoa(p.NumThread))
	}
	if p.Temperature > 0 {
		param("temperature", formatFloat(p.Temperature))
	}
	if p.TopK > 0 {
		param("top_k", strconv.Itoa(p.TopK))
	}
	if p.TopP > 0 {
		param("top_p", formatFloat(p.TopP))
	}
	if p.RepeatPenalty > 0 {
		param("repeat_penalty", formatFloat(p.RepeatPenalty))
	}
	if p.Seed != nil {
		param("seed", strconv.Itoa(*p.Seed))
	}
	if s.System != "" {
		fmt.Fprintf(&b, "\nSYSTEM \"\"\"%s\"\"\"\n", s.System)
	}
	if s.Template != "" {
		fmt.Fprintf(&b, "\nTEMPLATE \"\"\"%s\"\"\"\n", s.Template)
	}
	if len(s.Messages) > 0 {
		b.WriteString("\n")
		for _, m := range s.Messages {
			fmt.Fprintf(&b, "MESSAGE %s %s\n", m.Role, strings.ReplaceAll(m.Content, "\n", " "))
		}
	}
	return b.String()
}

// Write renders s to path.
func Write(path string, s Spec) error {
	if err := os.WriteFile(path, []byte(Render(s)), 0o644); err != nil {
		return fmt.Errorf("write modelfile %s: %w", path, err)
	}
	return nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func seed(n int) *int { return &n }

func systemPrompt(intro string, categories []string) string {
	return intro + "\nCategories: " + strings.Join(categories, ", ") +
		"\nFormat: {\"category\": \"name\", \"confidence\": 0.95, \"reasoning\": \"short justification\"}"
}

// Fast favours latency: small context, more GPU layers, low temperature.
func Fast(categories []string) Spec {
	return Spec{
		From:    BaseGGUF,
		Comment: "Tuned for maximum speed",
		Params: Params{NumCtx: 2048, NumGPU: 40, NumThread: 12, Temperature: 0.1,
			TopK: 20, TopP: 0.8, RepeatPenalty: 1.0, Seed: seed(42)},
		System:   systemPrompt("You are a fast product classifier. Answer with JSON only, no extra words.", categories),
		Template: "Classify: {{ .Prompt }}\n\nJSON:",
	}
}

// Balanced trades some speed for answer quality.
func Balanced(categories []string) Spec {
	return Spec{
		From:    BaseGGUF,
		Comment: "Balanced speed and quality",
		Params: Params{NumCtx: 3072, NumGPU: 35, NumThread: 8, Temperature: 0.2,
			TopK: 30, TopP: 0.9, RepeatPenalty: 1.05, Seed: seed(42)},
		System:   systemPrompt("You are a product classifier. Answer in JSON format.", categories),
		Template: "Product: {{ .Prompt }}\n\nClassification:",
	}
}

// Optimized is the default classifier model.
func Optimized(categories []string) Spec {
	return Spec{
		From:    BaseGGUF,
		Comment: "Default classifier model",
		Params: Params{NumCtx: 4096, NumGPU: 35, NumThread: 8, Temperature: 0.1,
			TopK: 40, TopP: 0.9, RepeatPenalty: 1.1},
		System: systemPrompt("You are an accurate electronics product classifier. Answer in JSON format only.", categories),
	}
}

// Finetune layers the training records over base as example conversations.
func Finetune(base string, categories []string, records []TrainingRecord) Spec {
	msgs := make([]Message, 0, 2*len(records))
	for _, r := range records {
		msgs = append(msgs,
			Message{Role: "user", Content: r.Input},
			Message{Role: "assistant", Content: r.Output})
	}
	return Spec{
		From:    base,
		Comment: "Fine-tuning parameters",
		Params: Params{NumCtx: 4096, NumGPU: 35, NumThread: 8, Temperature: 0.1,
			TopK: 40, TopP: 0.9, RepeatPenalty: 1.1},
		System:   systemPrompt("You are an accurate electronics product classifier. Answer in JSON format only.", categories),
		Template: "Product: {{ .Prompt }}\n\nClassification: {{ .Response }}",
		Messages: msgs,
	}
}
