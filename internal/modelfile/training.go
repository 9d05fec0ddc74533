package modelfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TrainingRecord pairs a product title with the expected model answer, a
// JSON-encoded classification.
type TrainingRecord struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// label fixes the key order of the encoded answer.
type label struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

const trainingConfidence = 0.98

var trainingSet = []struct{ input, category, reasoning string }{
	{"iPhone 15 Pro Max 256GB", "iphone", "iPhone 15 Pro Max is Apple's flagship smartphone"},
	{"iPhone 14 128GB", "iphone", "iPhone 14 is an Apple smartphone"},
	{"iPhone SE 2022", "iphone", "iPhone SE is a compact Apple smartphone"},
	{"Intel Core i9-14900K", "processors", "Intel Core i9 is a desktop CPU"},
	{"AMD Ryzen 9 7950X", "processors", "AMD Ryzen 9 is a desktop CPU"},
	{"Intel Core i7-13700K", "processors", "Intel Core i7 is a desktop CPU"},
	{"NVIDIA RTX 4070 Ti", "videocards", "NVIDIA RTX is a gaming graphics card"},
	{"AMD RX 7900 XTX", "videocards", "AMD RX is a gaming graphics card"},
	{"NVIDIA RTX 4090", "videocards", "NVIDIA RTX 4090 is a flagship graphics card"},
	{"ASUS ROG STRIX Z790-E", "motherboards", "ASUS ROG is a motherboard for Intel"},
	{"MSI MPG B650", "motherboards", "MSI MPG is a motherboard for AMD"},
	{"Gigabyte AORUS X670E", "motherboards", "Gigabyte AORUS is a motherboard for AMD"},
	{"PlayStation 5", "playstation", "PlayStation 5 is a Sony game console"},
	{"PS5 Digital Edition", "playstation", "PS5 Digital is the disc-less Sony console"},
	{"PlayStation 4 Pro", "playstation", "PlayStation 4 Pro is a Sony game console"},
	{"Nintendo Switch OLED", "nintendo-switch", "Nintendo Switch OLED is a hybrid Nintendo console"},
	{"Nintendo Switch Lite", "nintendo-switch", "Nintendo Switch Lite is a handheld Nintendo console"},
	{"Nintendo Switch", "nintendo-switch", "Nintendo Switch is a hybrid Nintendo console"},
	{"Steam Deck 512GB", "steam-deck", "Steam Deck is a handheld Valve console"},
	{"Steam Deck 256GB", "steam-deck", "Steam Deck is a handheld Valve console"},
	{"Steam Deck 64GB", "steam-deck", "Steam Deck is a handheld Valve console"},
}

// DefaultTrainingSet returns the built-in examples, three per category.
func DefaultTrainingSet() []TrainingRecord {
	out := make([]TrainingRecord, 0, len(trainingSet))
	for _, e := range trainingSet {
		b, _ := json.Marshal(label{Category: e.category, Confidence: trainingConfidence, Reasoning: e.reasoning})
		out = append(out, TrainingRecord{Input: e.input, Output: string(b)})
	}
	return out
}

// WriteTrainingJSON writes records as an indented JSON array.
func WriteTrainingJSON(path string, records []TrainingRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode training data: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write training data %s: %w", path, err)
	}
	return nil
}

// ReadTrainingJSON loads records written by WriteTrainingJSON.
func ReadTrainingJSON(path string) ([]TrainingRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training data %s: %w", path, err)
	}
	var out []TrainingRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode training data %s: %w", path, err)
	}
	return out, nil
}

// RenderTrainingText renders records as labelled Product/Classification pairs.
func RenderTrainingText(records []TrainingRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "Product: %s\nClassification: %s\n\n", r.Input, r.Output)
	}
	return b.String()
}
