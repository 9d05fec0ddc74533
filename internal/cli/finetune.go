package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prodclass/internal/common/fsutil"
	"prodclass/internal/modelfile"
)

type finetuneOptions struct {
	outDir string
	base   string
}

func newFinetuneCmd(a *app) *cobra.Command {
	var o finetuneOptions
	cmd := &cobra.Command{
		Use:   "finetune",
		Short: "Write the training set and a fine-tune Modelfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.finetune(o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.outDir, "out-dir", ".", "Directory for the generated files")
	f.StringVar(&o.base, "base", modelfile.BaseGGUF, "FROM line of the fine-tune Modelfile")
	return cmd
}

func (a *app) finetune(o finetuneOptions) error {
	jsonPath, err := fsutil.OutputPath(o.outDir, "training_data.json")
	if err != nil {
		return err
	}
	if err := modelfile.WriteTrainingJSON(jsonPath, modelfile.DefaultTrainingSet()); err != nil {
		return err
	}
	// The text file and Modelfile are rendered from the file as written.
	records, err := modelfile.ReadTrainingJSON(jsonPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d examples)\n", jsonPath, len(records))

	txtPath, err := fsutil.OutputPath(o.outDir, "training_data.txt")
	if err != nil {
		return err
	}
	if err := os.WriteFile(txtPath, []byte(modelfile.RenderTrainingText(records)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", txtPath, err)
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", txtPath)

	mfPath, err := fsutil.OutputPath(o.outDir, "Modelfile.finetune")
	if err != nil {
		return err
	}
	if err := modelfile.Write(mfPath, modelfile.Finetune(o.base, a.cfg.Categories, records)); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", mfPath)

	model := a.cfg.ModelName + "-finetuned"
	fmt.Fprintf(a.stdout, "\n%s\n", headStyle.Render("next steps"))
	fmt.Fprintf(a.stdout, "  1. %s create %s -f %s\n", a.cfg.RuntimeBin, model, mfPath)
	fmt.Fprintf(a.stdout, "  2. prodclass classify --model %s \"iPhone 15 Pro Max 256GB\"\n", model)
	fmt.Fprintf(a.stdout, "  3. prodclass run --model %s\n", model)
	return nil
}
