package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/extract"
)

var (
	extractPreset string
	extractBrand  string
)

var errNoMatch = errors.New("no flavor found")

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extraction pipeline on text from stdin",
	Long: `Reads page or post text from stdin and prints the extracted flavor as JSON.
Use --brand to apply a configured brand's patterns and placeholders, or --preset
for one of: ` + strings.Join(extract.PresetNames(), ", ") + `.`,
	Example: `  echo "BUTTER PECAN is our flavor of the day!" | scoop-scout extract --preset announcement`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := extractPatterns()
		if err != nil {
			return err
		}
		return runExtract(cmd.InOrStdin(), cmd.OutOrStdout(), set)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractPreset, "preset", "default", "pattern preset")
	extractCmd.Flags().StringVar(&extractBrand, "brand", "", "use this brand's configured patterns")
	rootCmd.AddCommand(extractCmd)
}

func extractPatterns() (extract.PatternSet, error) {
	if extractBrand == "" {
		return extract.PresetByName(extractPreset)
	}
	appCfg, err := config.GetAppConfig()
	if err != nil {
		return extract.PatternSet{}, err
	}
	brands, err := config.LoadBrands(appCfg.ConfigPath)
	if err != nil {
		return extract.PatternSet{}, err
	}
	selected, err := brands.Select([]string{extractBrand})
	if err != nil {
		return extract.PatternSet{}, err
	}
	return selected[0].Patterns, nil
}

type extractResult struct {
	Flavor      string `json:"flavor_name"`
	Description string `json:"description"`
}

func runExtract(in io.Reader, out io.Writer, set extract.PatternSet) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	frag, ok := extract.Extract(string(raw), set)
	if !ok {
		return errNoMatch
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(extractResult{Flavor: frag.FlavorName, Description: frag.Description})
}
