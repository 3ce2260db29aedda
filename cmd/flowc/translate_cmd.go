package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	flowconfig "github.com/c360studio/flowc/config"
	"github.com/c360studio/flowc/translate"
)

func newTranslateCmd(configPath *string, verbose *bool) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "translate <glob|file>...",
		Short: "translate one or more project source files to IR",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandGlobs(args)
			if err != nil {
				return err
			}
			logger := newLogger(*verbose)
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			var failed bool
			for _, path := range files {
				if err := translateFile(cmd.Context(), path, cfg, logger, dump); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more files failed to translate")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the translated IR as YAML")
	return cmd
}

func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func translateFile(ctx context.Context, path string, cfg *flowconfig.Config, logger *slog.Logger, dump bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	res, err := translate.Translate(ctx, src, translate.Options{Config: cfg.TaskConfig(), Logger: logger})
	if err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}

	if dump {
		out, err := yaml.Marshal(renderProject(res.Project))
		if err != nil {
			return fmt.Errorf("render IR: %w", err)
		}
		fmt.Println(string(out))
	}

	if res.HasErrors() {
		return fmt.Errorf("translation produced %d diagnostic(s)", len(res.Diagnostics))
	}
	return nil
}
