package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fountainhq/fountain/internal/survey"
)

// TemplateInfo summarizes one built-in template.
type TemplateInfo struct {
	Template  string `json:"template"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Questions int    `json:"questions"`
	Trigger   string `json:"trigger"`
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List built-in survey templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplates(rootOpts, cmd)
		},
	}
}

func runTemplates(opts *RootOptions, cmd *cobra.Command) error {
	templates := survey.Templates()

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]TemplateInfo, 0, len(names))
	for _, name := range names {
		t := templates[name]
		infos = append(infos, TemplateInfo{
			Template:  name,
			ID:        t.ID,
			Name:      t.Name,
			Questions: len(t.Questions),
			Trigger:   string(t.Trigger.Type),
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(infos)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tID\tNAME\tQUESTIONS\tTRIGGER")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", info.Template, info.ID, info.Name, info.Questions, info.Trigger)
	}
	return w.Flush()
}
