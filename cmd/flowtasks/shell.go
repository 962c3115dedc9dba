package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"flowtasks/internal/notice"
	"flowtasks/internal/tasksync"

	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  ls [all|active|completed]   list tasks
  add TITLE...                create a task
  done REF                    toggle completed
  rm REF                      delete a task
  reload                      fetch tasks from the server
  stats                       show counts
  whoami                      show the logged-in user
  logout                      log out and leave
  help, quit`

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session over a single task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadTasks(cmd.Context()); err != nil {
				return err
			}
			return a.runShell(cmd.Context(), a.in)
		},
	}
}

func (a *app) runShell(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	a.view(tasksync.FilterAll)
	for {
		a.showNotices()
		fmt.Fprint(a.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if quit := a.shellExec(ctx, fields[0], fields[1:]); quit {
			return nil
		}
		if a.session.Current() == nil {
			fmt.Fprintln(a.out, errorStyle.Render("Session expired, please log in again."))
			return &exitError{code: 2, err: errNotLoggedIn}
		}
	}
}

// shellExec runs one shell command and reports whether to leave the shell.
func (a *app) shellExec(ctx context.Context, name string, args []string) bool {
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(a.out, shellHelp)
	case "ls", "list":
		f, ok := tasksync.FilterAll, true
		if len(args) > 0 {
			f, ok = tasksync.ParseFilter(args[0])
		}
		if !ok {
			a.notices.Show(notice.Error, "filter must be all, active or completed")
			return false
		}
		a.view(f)
	case "add":
		if len(args) == 0 {
			a.notices.Show(notice.Error, "usage: add TITLE...")
			return false
		}
		a.report(a.tasks.Create(ctx, tasksync.Draft{Title: strings.Join(args, " ")}), "Task created")
		a.view(tasksync.FilterAll)
	case "done", "rm":
		if len(args) != 1 {
			a.notices.Show(notice.Error, "usage: "+name+" REF")
			return false
		}
		t, err := resolveRef(a.tasks, args[0])
		if err != nil {
			a.notices.Show(notice.Error, err.Error())
			return false
		}
		if name == "done" {
			a.report(a.tasks.ToggleComplete(ctx, t.ID), "Task updated")
		} else {
			a.report(a.tasks.Delete(ctx, t.ID), "Task deleted")
		}
		a.view(tasksync.FilterAll)
	case "reload":
		a.report(a.tasks.Reload(ctx), "Tasks refreshed")
		a.view(tasksync.FilterAll)
	case "stats":
		_ = printStats(a.out, a.opts.output, a.tasks.Stats())
	case "whoami":
		if s := a.session.Current(); s != nil {
			_ = printSession(a, s)
		}
	case "logout":
		a.session.Logout()
		a.tasks.Clear()
		fmt.Fprintln(a.out, "Logged out.")
		return true
	default:
		a.notices.Show(notice.Error, fmt.Sprintf("unknown command %q, try help", name))
	}
	return false
}

func (a *app) report(res tasksync.Result, ok string) {
	if res.Success {
		a.notices.Show(notice.Success, ok)
		return
	}
	a.notices.Show(notice.Error, res.Message)
}

func (a *app) view(f tasksync.Filter) {
	_ = printTasks(a.out, a.opts.output, a.tasks.Filter(f))
}

func (a *app) showNotices() {
	for _, n := range a.notices.Active() {
		style := successStyle
		if n.Kind == notice.Error {
			style = errorStyle
		}
		fmt.Fprintln(a.out, style.Render("• "+n.Message))
	}
}
