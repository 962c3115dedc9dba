package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"flowtasks/internal/models"
	"flowtasks/internal/tasksync"
	"flowtasks/internal/util"

	"github.com/spf13/cobra"
)

// resolveRef accepts a task ID or a 1-based position in the full list.
func resolveRef(e *tasksync.Engine, ref string) (tasksync.Task, error) {
	if t, ok := e.Find(ref); ok {
		return t, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		tasks := e.Tasks()
		if n >= 1 && n <= len(tasks) {
			return tasks[n-1], nil
		}
	}
	return tasksync.Task{}, fmt.Errorf("no task matches %q", ref)
}

func parsePriority(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	p := strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	if !models.ValidPriority(p) {
		return "", fmt.Errorf("priority must be Low, Medium or High")
	}
	return p, nil
}

func parseDue(s string) (*time.Time, error) {
	return util.ParseDueDate(s)
}

func listCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls", "list"},
		Short:   "List your tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := tasksync.ParseFilter(filter)
			if !ok {
				return fmt.Errorf("filter must be all, active or completed")
			}
			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			return printTasks(a.out, a.opts.output, a.tasks.Filter(f))
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, active or completed")
	return cmd
}

func addCmd(a *app) *cobra.Command {
	var desc, priority, due string
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := tasksync.Draft{Title: strings.Join(args, " "), Description: desc}
			var err error
			if d.Priority, err = parsePriority(priority); err != nil {
				return err
			}
			if d.DueDate, err = parseDue(due); err != nil {
				return err
			}
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			res := a.tasks.Create(cmd.Context(), d)
			if !res.Success {
				return a.failed(res.Kind, res.Message)
			}
			printOK(a.out, a.opts.output, "Task created.")
			return printTask(a.out, a.opts.output, *res.Task)
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High (default Medium)")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func doneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done REF",
		Short: "Toggle a task between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			t, err := resolveRef(a.tasks, args[0])
			if err != nil {
				return err
			}
			res := a.tasks.ToggleComplete(cmd.Context(), t.ID)
			if !res.Success {
				return a.failed(res.Kind, res.Message)
			}
			return printTask(a.out, a.opts.output, *res.Task)
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var title, desc, priority, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit REF",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p tasksync.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("desc") {
				p.Description = &desc
			}
			if flags.Changed("priority") {
				pr, err := parsePriority(priority)
				if err != nil {
					return err
				}
				p.Priority = &pr
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				p.DueDate = d
				p.ClearDueDate = d == nil
			}
			if clearDue {
				p.ClearDueDate = true
			}
			if p == (tasksync.Patch{}) {
				return fmt.Errorf("nothing to change; pass at least one of --title, --desc, --priority, --due, --clear-due")
			}

			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			t, err := resolveRef(a.tasks, args[0])
			if err != nil {
				return err
			}
			res := a.tasks.Update(cmd.Context(), t.ID, p)
			if !res.Success {
				return a.failed(res.Kind, res.Message)
			}
			printOK(a.out, a.opts.output, "Task updated.")
			return printTask(a.out, a.opts.output, *res.Task)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High")
	cmd.Flags().StringVar(&due, "due", "", "new due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm REF",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			t, err := resolveRef(a.tasks, args[0])
			if err != nil {
				return err
			}
			res := a.tasks.Delete(cmd.Context(), t.ID)
			if !res.Success {
				return a.failed(res.Kind, res.Message)
			}
			printOK(a.out, a.opts.output, fmt.Sprintf("Deleted %q.", t.Title))
			return nil
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count active and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			return printStats(a.out, a.opts.output, a.tasks.Stats())
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:       "export csv|xlsx",
		Short:     "Download your tasks as CSV or Excel",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "xlsx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := args[0]
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if outPath == "" {
				outPath = "tasks." + format
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			n, err := a.api.ExportTasks(cmd.Context(), format, f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(outPath)
				return err
			}
			printOK(a.out, "table", fmt.Sprintf("Wrote %d bytes to %s.", n, outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default tasks.<format>)")
	return cmd
}
