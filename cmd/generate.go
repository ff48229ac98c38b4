package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eddogola/comic-gen/internal/images"
	"github.com/eddogola/comic-gen/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// manifest is written next to the panel images
type manifest struct {
	Prompt string          `yaml:"prompt"`
	Panels []manifestPanel `yaml:"panels"`
}

type manifestPanel struct {
	PanelNumber int    `yaml:"panel_number"`
	Description string `yaml:"description"`
	File        string `yaml:"file"`
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a comic from a prompt and save the panels to disk",
		Example: `  # Write panel_1.png..panel_4.png and comic.yaml into ./output
  comicgen generate "a dog learns to fly"

  # Custom output directory
  comicgen generate "a dog learns to fly" --out comics/dog`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			svc := newComicService(opts.cfg)
			var bar *progressbar.ProgressBar
			svc.Hooks.Decomposed = func(count int) {
				if count > 0 {
					bar = progressbar.Default(int64(count), "rendering panels")
				}
			}
			svc.Hooks.PanelReady = func(int) {
				if bar != nil {
					_ = bar.Add(1)
				}
			}

			result, err := svc.Generate(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
			}

			m, err := writeComic(outputDir, prompt, result)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(m)
			if err != nil {
				return fmt.Errorf("failed to marshal manifest: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "output", "Directory to write panel images and comic.yaml into")

	return cmd
}

// writeComic decodes every panel image into outputDir and writes comic.yaml.
func writeComic(outputDir, prompt string, result *models.Comic) (*manifest, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &manifest{Prompt: prompt}
	for _, panel := range result.Panels {
		_, data, err := images.DecodeDataURI(panel.Image)
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", panel.PanelNumber, err)
		}

		name := fmt.Sprintf("panel_%d.png", panel.PanelNumber)
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		slog.Info("Panel saved", "panel", panel.PanelNumber, "file", name, "bytes", len(data))

		m.Panels = append(m.Panels, manifestPanel{
			PanelNumber: panel.PanelNumber,
			Description: panel.Description,
			File:        name,
		})
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "comic.yaml"), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	return m, nil
}
