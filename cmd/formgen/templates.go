package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appcomponents "github.com/Rainytroy/May-Quote-sub001/pkg/app"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts/sources"
)

var (
	templateName       string
	templateFirstFile  string
	templateSecondFile string
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Manage prompt template sets",
}

// withCatalog загружает каталог, выполняет fn и закрывает хранилище.
func withCatalog(cmd *cobra.Command, fn func(catalog *prompts.Catalog) error) error {
	store, catalog, err := appcomponents.InitializeCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(catalog)
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates, the active one is marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			return printTemplates(cmd.OutOrStdout(), catalog.List(), catalog.Active().ID)
		})
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a template (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			tpl := catalog.Active()
			if len(args) == 1 {
				var err error
				if tpl, err = catalog.Get(args[0]); err != nil {
					return err
				}
			}
			return printTemplate(cmd.OutOrStdout(), tpl)
		})
	},
}

var templatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a template from two text files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		first, err := os.ReadFile(templateFirstFile)
		if err != nil {
			return err
		}
		second, err := os.ReadFile(templateSecondFile)
		if err != nil {
			return err
		}

		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			added, err := catalog.Add(cmd.Context(), prompts.TemplateSet{
				Name:        templateName,
				FirstStage:  string(first),
				SecondStage: string(second),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(okStyle, "added "+added.ID))
			return nil
		})
	},
}

var templatesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a template active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			if err := catalog.SetActive(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(okStyle, "active: "+catalog.Active().Name))
			return nil
		})
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			if err := catalog.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(okStyle, "deleted "+args[0]))
			return nil
		})
	},
}

var templatesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all custom templates and activate the standard one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(catalog *prompts.Catalog) error {
			if err := catalog.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(okStyle, "catalog reset"))
			return nil
		})
	},
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Check a JSON/YAML catalog file and every template in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sources.ValidateDocument(args[0]); err != nil {
			return err
		}

		store := prompts.NewSourceStore(sources.NewFileSource(args[0]))
		templates, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		invalid := 0
		for _, t := range templates {
			if err := prompts.Validate(t); err != nil {
				invalid++
				fmt.Fprintln(out, renderError(fmt.Sprintf("%s: %v", t.ID, err)))
				continue
			}
			fmt.Fprintln(out, render(okStyle, "ok "+t.ID))
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d templates are invalid", invalid, len(templates))
		}
		return nil
	},
}

func init() {
	templatesAddCmd.Flags().StringVar(&templateName, "name", "", "Template name")
	templatesAddCmd.Flags().StringVar(&templateFirstFile, "first", "", "File with the first stage template ({#input})")
	templatesAddCmd.Flags().StringVar(&templateSecondFile, "second", "", "File with the second stage template ({#promptResults1}, {#input})")
	_ = templatesAddCmd.MarkFlagRequired("name")
	_ = templatesAddCmd.MarkFlagRequired("first")
	_ = templatesAddCmd.MarkFlagRequired("second")

	templatesCmd.AddCommand(
		templatesListCmd,
		templatesShowCmd,
		templatesAddCmd,
		templatesActivateCmd,
		templatesDeleteCmd,
		templatesResetCmd,
		templatesValidateCmd,
	)
}
