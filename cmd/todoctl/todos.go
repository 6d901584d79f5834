package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/brizzai/todoctl/internal/requester"
	"github.com/brizzai/todoctl/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how todos are printed
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputTable, OutputJSON, OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (want table, json or yaml)", s)
	}
}

// todoView is the printable form of a todo. Views are listed by ID.
type todoView struct {
	ID          int64  `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Done        bool   `json:"done" yaml:"done"`
}

func toViews(todos []requester.Todo) []todoView {
	views := make([]todoView, 0, len(todos))
	for _, t := range todos {
		v := todoView{Description: t.Description, Done: t.Done}
		if t.ID != nil {
			v.ID = *t.ID
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

func renderTodos(w io.Writer, format OutputFormat, todos []requester.Todo) error {
	views := toViews(todos)
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(views) == 0 {
			pterm.Info.Println("Nothing to do")
			return nil
		}
		data := pterm.TableData{{"ID", "DONE", "DESCRIPTION"}}
		for _, v := range views {
			done := " "
			if v.Done {
				done = "x"
			}
			data = append(data, []string{strconv.FormatInt(v.ID, 10), done, v.Description})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
	}
}

func newListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				todos, err := c.ListTodos(ctx)
				if err != nil {
					return err
				}
				return renderTodos(os.Stdout, format, todos)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(OutputTable), "Output format: table, json or yaml")
	return cmd
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <description>",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if err := c.SaveTodo(ctx, requester.Todo{Description: args[0]}); err != nil {
					return err
				}
				pterm.Success.Printfln("Added %q", args[0])
				return nil
			})
		},
	}
}

func newDoneCmd() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				todo, err := findTodo(ctx, c, id)
				if err != nil {
					return err
				}
				todo.Done = !undo
				if err := c.SaveTodo(ctx, todo); err != nil {
					return err
				}
				pterm.Success.Printfln("Updated %q", todo.Description)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark the todo as not done")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if err := c.DeleteTodo(ctx, requester.Todo{ID: &id}); err != nil {
					return err
				}
				pterm.Success.Printfln("Deleted todo %d", id)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id: %q", s)
	}
	return id, nil
}

// findTodo looks up a todo by ID, the API has no single-item endpoint
func findTodo(ctx context.Context, c *session.Coordinator, id int64) (requester.Todo, error) {
	todos, err := c.ListTodos(ctx)
	if err != nil {
		return requester.Todo{}, err
	}
	for _, t := range todos {
		if t.ID != nil && *t.ID == id {
			return t, nil
		}
	}
	return requester.Todo{}, fmt.Errorf("todo %d not found", id)
}
