package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/xdevkit/xdevkit-cli/internal/pageconfig"
)

var pagesFormat string

var pagesCmd = &cobra.Command{
	Use:     "pages",
	Aliases: []string{"list", "ls"},
	Short:   "List the pages defined in the page config",
	Long: `List every page of the page config with its title, whether its template
exists, and how many scripts and stylesheets it inlines in production.

Examples:
  xdevkit pages
  xdevkit pages --format json
  xdevkit pages --engine go --ejs ./templates`,
	Args: cobra.NoArgs,
	RunE: runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)

	addPathFlags(pagesCmd)
	pagesCmd.Flags().StringVarP(&pagesFormat, "format", "f", "table", "output format (table, json, yaml, csv)")

	AddFlagValidation(pagesCmd, "format", func(v string) error {
		return validateChoice("format", v, []string{"table", "json", "yaml", "csv"})
	})
}

// pageInfo is one row of the pages listing.
type pageInfo struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Template string `json:"template" yaml:"template"`
	Exists   bool   `json:"exists" yaml:"exists"`
	Scripts  int    `json:"inline_scripts" yaml:"inline_scripts"`
	Styles   int    `json:"inline_styles" yaml:"inline_styles"`
}

func runPages(cmd *cobra.Command, _ []string) error {
	env, err := newEnvironment(cmd.Context())
	if err != nil {
		return err
	}

	ext := env.orch.Templates.Renderer().Ext()
	pages, err := collectPages(env.pages.Get(), env.cfg.Paths.Pages, ext)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch pagesFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(pages)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(pages)
	case "csv":
		return writePagesCSV(out, pages)
	default:
		return writePagesTable(out, pages)
	}
}

func collectPages(cfg *pageconfig.Config, dir, ext string) ([]pageInfo, error) {
	titler := cases.Title(language.English)
	pages := make([]pageInfo, 0, len(cfg.Pages))

	for _, id := range cfg.PageIDs() {
		data, err := cfg.Resolve(id, pageconfig.ResolveOptions{})
		if err != nil {
			return nil, err
		}

		title, _ := data["title"].(string)
		if title == "" {
			title = titler.String(strings.NewReplacer("-", " ", "_", " ").Replace(id))
		}

		template := filepath.Join(dir, id+ext)
		_, statErr := os.Stat(template)

		pages = append(pages, pageInfo{
			ID:       id,
			Title:    title,
			Template: template,
			Exists:   statErr == nil,
			Scripts:  listLen(data[pageconfig.InlineScriptListKey]),
			Styles:   listLen(data[pageconfig.InlineCSSListKey]),
		})
	}

	return pages, nil
}

func listLen(v any) int {
	switch l := v.(type) {
	case []any:
		return len(l)
	case []string:
		return len(l)
	default:
		return 0
	}
}

func writePagesTable(out io.Writer, pages []pageInfo) error {
	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tTITLE\tTEMPLATE\tSCRIPTS\tSTYLES")
	for _, p := range pages {
		template := p.Template
		if !p.Exists {
			template += " (missing)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Title, template, p.Scripts, p.Styles)
	}

	return w.Flush()
}

func writePagesCSV(out io.Writer, pages []pageInfo) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "title", "template", "exists", "inline_scripts", "inline_styles"}); err != nil {
		return err
	}
	for _, p := range pages {
		record := []string{
			p.ID,
			p.Title,
			p.Template,
			strconv.FormatBool(p.Exists),
			strconv.Itoa(p.Scripts),
			strconv.Itoa(p.Styles),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()

	return w.Error()
}
