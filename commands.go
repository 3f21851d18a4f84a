package models

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewCommand creates a Cobra command tree for model management.
// The returned command should be added to a parent CLI's root command.
//
// Commands provided:
//   - models list
//   - models languages
//   - models download <language|model> [--force]
//   - models remove <model>
//   - models info <model>
//   - models path <model> [--resolved]
//   - models verify <model>
//
// Global flags: --json, --quiet
func NewCommand(cfg Config, opts ...ManagerOption) *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
	)

	// Manager will be created in PersistentPreRunE
	var mgr Manager

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage offline speech recognition models",
		Long:  "Download, verify, and manage Vosk language models cached on local disk.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip manager creation for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			var err error
			mgr, err = NewManager(cfg, opts...)
			if err != nil {
				return fmt.Errorf("failed to initialize manager: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if mgr != nil {
				mgr.Close()
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	cmd.AddCommand(listCmd(&mgr, &jsonOutput))
	cmd.AddCommand(languagesCmd(&mgr, &jsonOutput))
	cmd.AddCommand(downloadCmd(&mgr, &quiet))
	cmd.AddCommand(removeCmd(&mgr, &quiet))
	cmd.AddCommand(infoCmd(&mgr, &jsonOutput))
	cmd.AddCommand(pathCmd(&mgr))
	cmd.AddCommand(verifyCmd(&mgr, &jsonOutput))

	return cmd
}

// resolveDescriptor accepts either a model name or a language code.
func resolveDescriptor(mgr Manager, arg string) (ModelDescriptor, error) {
	desc, err := mgr.Registry().Lookup(arg)
	if err == nil {
		return desc, nil
	}
	return mgr.Registry().ByLanguage(arg)
}

func listCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List downloaded models",
		Long:  "List models that are downloaded and verified in the local cache.",
		RunE: func(cmd *cobra.Command, args []string) error {
			installed := (*mgr).ListDownloaded()

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), installed)
			}

			if len(installed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models downloaded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tLANGUAGE\tSIZE\tPATH")
			for _, m := range installed {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.Descriptor.Name, m.Descriptor.LanguageName, formatBytes(m.Size), m.Path)
			}
			return w.Flush()
		},
	}
}

func languagesCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := (*mgr).Registry().All()

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), descriptors)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LANGUAGE\tCODE\tMODEL\tDOWNLOADED")
			for _, d := range descriptors {
				downloaded := "no"
				if (*mgr).IsModelDownloaded(d.Name) {
					downloaded = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.LanguageName, d.Language, d.Name, downloaded)
			}
			return w.Flush()
		},
	}
}

func downloadCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download <language|model>",
		Short: "Download and verify a language model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescriptor(*mgr, args[0])
			if err != nil {
				return err
			}

			if (*mgr).IsDownloadInProgress(desc.Name) {
				return ErrDownloadInProgress
			}
			if !force && (*mgr).IsModelDownloaded(desc.Name) {
				if !*quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Model %s already downloaded.\n", desc.Name)
				}
				return nil
			}

			var opts []DownloadOption
			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Downloading %s (%s)...\n", desc.Name, desc.SourceURL)
				lastShown := -1
				opts = append(opts, WithProgress(func(percent int) {
					// Redraw only when the value changes to keep output calm.
					if percent != lastShown {
						lastShown = percent
						fmt.Fprintf(cmd.OutOrStdout(), "\r%3d%%", percent)
					}
				}))
			}

			if err := (*mgr).Download(cmd.Context(), desc.Name, opts...); err != nil {
				if !*quiet {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "\nModel %s ready (%s).\n",
					desc.Name, formatBytes((*mgr).ModelSize(desc.Name)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if already present")
	return cmd
}

func removeCmd(mgr *Manager, quiet *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Delete a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescriptor(*mgr, args[0])
			if err != nil {
				return err
			}
			if err := (*mgr).Remove(desc.Name); err != nil {
				return err
			}
			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", desc.Name)
			}
			return nil
		},
	}
}

func infoCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info <model>",
		Short: "Show model details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescriptor(*mgr, args[0])
			if err != nil {
				return err
			}

			info := struct {
				ModelDescriptor
				Downloaded bool   `json:"downloaded"`
				InProgress bool   `json:"inProgress"`
				Size       int64  `json:"size"`
				Path       string `json:"path"`
			}{
				ModelDescriptor: desc,
				Downloaded:      (*mgr).IsModelDownloaded(desc.Name),
				InProgress:      (*mgr).IsDownloadInProgress(desc.Name),
				Size:            (*mgr).ModelSize(desc.Name),
				Path:            (*mgr).ModelDir(desc.Name),
			}

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Model:\t%s\n", info.Name)
			fmt.Fprintf(w, "Language:\t%s (%s)\n", info.LanguageName, info.Language)
			fmt.Fprintf(w, "URL:\t%s\n", info.SourceURL)
			fmt.Fprintf(w, "Downloaded:\t%v\n", info.Downloaded)
			fmt.Fprintf(w, "In progress:\t%v\n", info.InProgress)
			fmt.Fprintf(w, "Size:\t%s\n", formatBytes(info.Size))
			fmt.Fprintf(w, "Path:\t%s\n", info.Path)
			return w.Flush()
		},
	}
}

func pathCmd(mgr *Manager) *cobra.Command {
	var resolved bool

	cmd := &cobra.Command{
		Use:   "path <model>",
		Short: "Print a model's directory path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescriptor(*mgr, args[0])
			if err != nil {
				return err
			}

			if resolved {
				dir, err := (*mgr).ResolvedModelDir(desc.Name)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), (*mgr).ModelDir(desc.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolved, "resolved", false, "Resolve into a nested wrapper folder and require verification")
	return cmd
}

func verifyCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <model>",
		Short: "Verify a downloaded model's structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescriptor(*mgr, args[0])
			if err != nil {
				return err
			}

			dir, err := (*mgr).ResolvedModelDir(desc.Name)
			if err != nil {
				return err
			}
			result := VerifyDir(dir)

			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s: valid (%d files, groups: %v)\n",
				desc.Name, result.FileCount, result.MatchedGroups)
			return nil
		},
	}
}

// writeJSON renders v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
