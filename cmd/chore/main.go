// Command chore runs tasks declared in chore.yaml/chore.yml files found
// under a directory tree, honoring their dependency graph and make-style
// file-freshness rules.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fredrikaverpil/chore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	rootFlag    string
	verboseFlag bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chore",
		Short:         "chore runs project tasks declared across chore.yaml files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rootFlag, "root", "", "directory to search for chore.yaml files (default: current directory)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newRunCmd(), newListCmd(), newGraphCmd())
	return root
}

func resolveRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	return os.Getwd()
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <target>...",
		Short: "resolve and run one or more tasks and their dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag {
				chore.Log.SetLevel(logrus.DebugLevel)
			}
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			err = chore.Execute(cmd.Context(), chore.ExecuteOptions{
				Targets: args,
				Root:    root,
				IO: chore.IO{
					Stdin:  cmd.InOrStdin(),
					Stdout: cmd.OutOrStdout(),
					Stderr: cmd.ErrOrStderr(),
				},
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return err
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [target]...",
		Short: "list resolvable tasks, or the dependency subset of the given targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			reg, roots, err := chore.BuildForest(root, args)
			if err != nil {
				return err
			}
			seen := make(map[string]bool)
			var walk func(n *chore.SharedNode)
			walk = func(n *chore.SharedNode) {
				if seen[n.Key.String()] {
					return
				}
				seen[n.Key.String()] = true
				if def, ok := reg.Get(n.Key); ok && def.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.Key.String(), def.Description)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), n.Key.String())
				}
				for _, c := range n.Children {
					walk(c)
				}
			}
			for _, r := range roots {
				walk(r)
			}
			return nil
		},
	}
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [target]...",
		Short: "print the dependency tree of the given targets (or all tasks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			_, roots, err := chore.BuildForest(root, args)
			if err != nil {
				return err
			}
			var printNode func(n *chore.SharedNode, indent string)
			printNode = func(n *chore.SharedNode, indent string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", indent, n.Key.String())
				for _, c := range n.Children {
					printNode(c, indent+"  ")
				}
			}
			for _, r := range roots {
				printNode(r, "")
			}
			return nil
		},
	}
}
