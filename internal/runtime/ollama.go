package runtime

import (
	"context"
	"strings"

	"prodclass/internal/registry"
	"prodclass/pkg/types"
)

// DefaultBin is the model runtime CLI used when none is configured.
const DefaultBin = "ollama"

// Ollama drives the model runtime CLI through a Runner.
type Ollama struct {
	Bin    string
	Runner Runner
}

// NewOllama returns a client for bin (DefaultBin when empty).
func NewOllama(bin string, r Runner) *Ollama {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBin
	}
	return &Ollama{Bin: bin, Runner: r}
}

func (o *Ollama) run(ctx context.Context, args ...string) (Output, error) {
	out, err := o.Runner.Run(ctx, o.Bin, args...)
	if err != nil {
		return out, err
	}
	if out.ExitCode != 0 {
		return out, processError{cmd: o.Bin + " " + args[0], exitCode: out.ExitCode, stderr: strings.TrimSpace(out.Stderr)}
	}
	return out, nil
}

// List returns the models registered with the runtime.
func (o *Ollama) List(ctx context.Context) ([]types.Model, error) {
	out, err := o.run(ctx, "list")
	if err != nil {
		return nil, err
	}
	return registry.ParseList(out.Stdout), nil
}

// HasModel reports whether model is registered with the runtime.
func (o *Ollama) HasModel(ctx context.Context, model string) (bool, error) {
	models, err := o.List(ctx)
	if err != nil {
		return false, err
	}
	return registry.Contains(models, model), nil
}

// Generate runs one prompt through model and returns the trimmed stdout.
// A non-zero exit is returned as a process failure carrying stderr.
func (o *Ollama) Generate(ctx context.Context, model, prompt string) (string, error) {
	out, err := o.run(ctx, "run", model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Stdout), nil
}

// Create registers model from a Modelfile path.
func (o *Ollama) Create(ctx context.Context, model, modelfile string) error {
	_, err := o.run(ctx, "create", model, "-f", modelfile)
	return err
}

// Version returns the runtime's version line.
func (o *Ollama) Version(ctx context.Context) (string, error) {
	out, err := o.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Stdout), nil
}
