// Command wordlists inspects the word list files a castlefall server loads.
//
//	wordlists analyze [dir]   per-list size, duplicates, blank lines and usable word count
//	wordlists validate [dir]  exits non-zero if any list is unreadable or has fewer than 2 distinct words
//
// dir defaults to ./wordlists.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/wordlist"
)

const minWords = 2

// Analysis summarizes one word list file
type Analysis struct {
	Name       string
	Lines      int
	Blank      int
	Duplicates []string
	Distinct   int
	// MaxCount is the largest word count a round can be started with
	MaxCount int
}

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; warnings do not.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("wordlists failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "wordlists",
		Usage: "Inspect castlefall word list files",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Print statistics for every word list",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := listFiles(dirArg(cmd))
					if err != nil {
						return err
					}
					for _, file := range files {
						a, err := analyzeList(file)
						if err != nil {
							fmt.Fprintf(cmd.Root().Writer, "\n=== %s ===\nError reading file: %v\n", filepath.Base(file), err)
							continue
						}
						printAnalysis(cmd.Root().Writer, a)
					}
					return nil
				},
			},
			{
				Name:      "validate",
				Usage:     "Check that every word list can be used for a round",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := listFiles(dirArg(cmd))
					if err != nil {
						return err
					}

					results := make([]ValidationResult, 0, len(files))
					for _, file := range files {
						results = append(results, validateList(file))
					}

					if !printValidation(cmd.Root().Writer, results) {
						return cli.Exit("some word lists have errors", 1)
					}
					return nil
				},
			},
		},
	}
}

func dirArg(cmd *cli.Command) string {
	if dir := cmd.Args().First(); dir != "" {
		return dir
	}
	return "wordlists"
}

// listFiles returns the word list files in dir, sorted by name
func listFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+wordlist.Extension))
	if err != nil {
		return nil, fmt.Errorf("error finding word lists: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", wordlist.ErrEmptyDirectory, dir)
	}
	sort.Strings(files)
	return files, nil
}

func analyzeList(path string) (Analysis, error) {
	lines, err := wordlist.ReadFile(path)
	if err != nil {
		return Analysis{}, err
	}

	a := Analysis{
		Name:  strings.TrimSuffix(filepath.Base(path), wordlist.Extension),
		Lines: len(lines),
	}

	seen := make(map[string]int, len(lines))
	for _, line := range lines {
		if line == "" {
			a.Blank++
			continue
		}
		seen[line]++
		if seen[line] == 2 {
			a.Duplicates = append(a.Duplicates, line)
		}
	}

	a.Distinct = len(wordlist.Normalize(lines))
	a.MaxCount = a.Distinct
	return a, nil
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "\n=== %s ===\n", a.Name)
	fmt.Fprintf(w, "Lines: %d\n", a.Lines)
	fmt.Fprintf(w, "Blank lines: %d\n", a.Blank)
	fmt.Fprintf(w, "Distinct words: %d\n", a.Distinct)
	if len(a.Duplicates) > 0 {
		fmt.Fprintf(w, "Duplicates (%d): %s\n", len(a.Duplicates), strings.Join(a.Duplicates, ", "))
	}
	if a.MaxCount >= minWords {
		fmt.Fprintf(w, "Usable word counts: %d to %d\n", minWords, a.MaxCount)
	} else {
		fmt.Fprintln(w, "Usable word counts: none")
	}
}

// validateList checks that a list is readable and has enough distinct words
// to start a round, and warns when it cannot serve the default board size.
func validateList(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	a, err := analyzeList(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	if a.Distinct < minWords {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Only %d distinct words, need at least %d", a.Distinct, minWords))
	} else if a.Distinct < room.DefaultWordCount {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d distinct words, fewer than the default board of %d", a.Distinct, room.DefaultWordCount))
	}

	if len(a.Duplicates) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d duplicate words are ignored", len(a.Duplicates)))
	}

	return result
}

// printValidation writes a report and reports whether every file is valid
func printValidation(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All word lists are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some word lists have errors")
	}
	return allValid
}
