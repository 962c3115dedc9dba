package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"flowtasks/internal/dto"
	"flowtasks/internal/models"
	"flowtasks/internal/tasksync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	doneStyle    = cellStyle.Foreground(lipgloss.Color("8")).Strikethrough(true)
	highStyle    = cellStyle.Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// encode writes v as JSON or YAML. It reports false for table output.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func printTasks(w io.Writer, format string, tasks []tasksync.Task) error {
	if tasks == nil {
		tasks = []tasksync.Task{}
	}
	if ok, err := encode(w, format, tasks); ok {
		return err
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "DONE", "TITLE", "PRIORITY", "DUE", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch {
			case tasks[row].Completed:
				return doneStyle
			case col == 3 && tasks[row].Priority == models.PriorityHigh:
				return highStyle
			}
			return cellStyle
		})
	for i, tk := range tasks {
		done := " "
		if tk.Completed {
			done = "x"
		}
		t.Row(strconv.Itoa(i+1), done, tk.Title, tk.Priority, formatDue(tk), tk.ID)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatDue(t tasksync.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Format(dateLayout)
}

func printTask(w io.Writer, format string, t tasksync.Task) error {
	if ok, err := encode(w, format, t); ok {
		return err
	}
	done := "no"
	if t.Completed {
		done = "yes"
	}
	_, err := fmt.Fprintf(w, "%s\n  id:        %s\n  priority:  %s\n  due:       %s\n  completed: %s\n",
		t.Title, t.ID, t.Priority, formatDue(t), done)
	if err == nil && t.Description != "" {
		_, err = fmt.Fprintf(w, "  %s\n", t.Description)
	}
	return err
}

func printUsers(w io.Writer, format string, users []dto.UserResponse) error {
	if users == nil {
		users = []dto.UserResponse{}
	}
	if ok, err := encode(w, format, users); ok {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "ROLE", "JOINED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, u := range users {
		t.Row(u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format(dateLayout))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printStats(w io.Writer, format string, s tasksync.Stats) error {
	if ok, err := encode(w, format, s); ok {
		return err
	}
	_, err := fmt.Fprintf(w, "%d tasks: %d active, %d completed\n", s.Total, s.Active, s.Completed)
	return err
}

// printOK writes a confirmation line in table mode only.
func printOK(w io.Writer, format, msg string) {
	if format == "table" {
		fmt.Fprintln(w, successStyle.Render(msg))
	}
}
