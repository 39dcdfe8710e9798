package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/taskdeck/taskdeck/internal/client"
)

var (
	app    = kingpin.New("taskdeck", "Multi-user task assignment service CLI")
	server = app.Flag("server", "API base URL").Envar("TASKDECK_SERVER").Default("http://localhost:3200").String()
	token  = app.Flag("token", "API token").Envar("TASKDECK_TOKEN").String()

	// User commands
	userCmd      = app.Command("user", "User directory commands")
	userAddCmd   = userCmd.Command("add", "Register a user and print its API token")
	userAddName  = userAddCmd.Arg("name", "Display name").Required().String()
	userAddEmail = userAddCmd.Flag("email", "Email address").String()
	userListCmd  = userCmd.Command("list", "List registered users")

	// Task commands
	taskCmd     = app.Command("task", "Task commands")
	taskListCmd = taskCmd.Command("list", "List tasks you own or are assigned to")

	taskAddCmd    = taskCmd.Command("add", "Create a task")
	taskAddTitle  = taskAddCmd.Arg("title", "Task title").Required().String()
	taskAddDesc   = taskAddCmd.Flag("description", "Task description").Short('d').Required().String()
	taskAddTag    = taskAddCmd.Flag("tag", "Label").String()
	taskAddDue    = taskAddCmd.Flag("due", "Due date (RFC3339)").String()
	taskAddAssign = taskAddCmd.Flag("assign", "User id to assign (repeatable)").Strings()

	taskUpdateCmd    = taskCmd.Command("update", "Update a task you own")
	taskUpdateID     = taskUpdateCmd.Arg("id", "Task id").Required().String()
	taskUpdateTitle  = taskUpdateCmd.Flag("title", "New title").String()
	taskUpdateDesc   = taskUpdateCmd.Flag("description", "New description").String()
	taskUpdateTag    = taskUpdateCmd.Flag("tag", "New label").String()
	taskUpdateDue    = taskUpdateCmd.Flag("due", "New due date (RFC3339)").String()
	taskUpdateStatus = taskUpdateCmd.Flag("status", "New status").String()

	taskRmCmd = taskCmd.Command("rm", "Delete a task you are assigned to")
	taskRmID  = taskRmCmd.Arg("id", "Task id").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	c := client.New(*server, *token)

	var err error
	switch command {
	case userAddCmd.FullCommand():
		err = runUserAdd(ctx, c)
	case userListCmd.FullCommand():
		err = runUserList(ctx, c)
	case taskListCmd.FullCommand():
		err = runTaskList(ctx, c)
	case taskAddCmd.FullCommand():
		err = runTaskAdd(ctx, c)
	case taskUpdateCmd.FullCommand():
		err = runTaskUpdate(ctx, c)
	case taskRmCmd.FullCommand():
		err = runTaskRm(ctx, c)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runUserAdd(ctx context.Context, c *client.Client) error {
	u, err := c.Register(ctx, *userAddName, *userAddEmail)
	if err != nil {
		return err
	}
	fmt.Printf("id:    %s\n", u.ID)
	fmt.Printf("name:  %s\n", u.Name)
	fmt.Printf("token: %s\n", u.Token)
	color.New(color.FgYellow).Println("Store the token now; it is not shown again.")
	return nil
}

func runUserList(ctx context.Context, c *client.Client) error {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%s  %s\n", u.ID, u.Name)
	}
	return nil
}

func runTaskList(ctx context.Context, c *client.Client) error {
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		statusColor(t.Status).Printf("[%s]", t.Status)
		fmt.Printf(" %s  %s (owner: %s", t.ID, t.Title, t.Owner.Name)
		for _, name := range t.AssignedMembers {
			fmt.Printf(", %s", name)
		}
		fmt.Println(")")
	}
	return nil
}

func runTaskAdd(ctx context.Context, c *client.Client) error {
	req := client.CreateTaskRequest{
		Title:       *taskAddTitle,
		Description: *taskAddDesc,
		Tag:         *taskAddTag,
		Users:       *taskAddAssign,
	}
	due, err := parseDue(*taskAddDue)
	if err != nil {
		return err
	}
	req.DueDate = due
	if req.Users == nil {
		req.Users = []string{}
	}

	t, err := c.CreateTask(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", t.ID)
	return nil
}

func runTaskUpdate(ctx context.Context, c *client.Client) error {
	req := client.UpdateTaskRequest{
		Title:       *taskUpdateTitle,
		Description: *taskUpdateDesc,
		Tag:         *taskUpdateTag,
		Status:      *taskUpdateStatus,
	}
	due, err := parseDue(*taskUpdateDue)
	if err != nil {
		return err
	}
	req.DueDate = due

	t, err := c.UpdateTask(ctx, *taskUpdateID, req)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s ", t.ID)
	statusColor(t.Status).Printf("[%s]\n", t.Status)
	return nil
}

func runTaskRm(ctx context.Context, c *client.Client) error {
	if err := c.DeleteTask(ctx, *taskRmID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", *taskRmID)
	return nil
}

func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --due %q, want RFC3339: %w", s, err)
	}
	return &t, nil
}

func statusColor(status string) *color.Color {
	switch status {
	case "completed", "done":
		return color.New(color.FgGreen)
	case "pending":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
