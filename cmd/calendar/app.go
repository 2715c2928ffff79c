package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"personal-calendar/internal/client"
	"personal-calendar/internal/projection"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newApp() *cli.App {
	return &cli.App{
		Name:  "calendar",
		Usage: "Manage your personal calendar from the terminal.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:3001", EnvVars: []string{"CALENDAR_SERVER_URL"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "token-file", Value: defaultTokenFile(), EnvVars: []string{"CALENDAR_TOKEN_FILE"}, Usage: "where the session token is kept"},
		},
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			logoutCommand(),
			listCommand(),
			addCommand(),
			editCommand(),
			removeCommand(),
			exportCommand(),
			linkCommand(),
		},
	}
}

func apiClient(c *cli.Context) (*client.Client, error) {
	api := client.New(c.String("server"), nil)
	token, err := loadToken(c.String("token-file"))
	if err != nil {
		return nil, err
	}
	api.SetToken(token)
	return api, nil
}

func authedClient(c *cli.Context) (*client.Client, error) {
	api, err := apiClient(c)
	if err != nil {
		return nil, err
	}
	if api.Token() == "" {
		return nil, errors.New("not logged in, run 'calendar login' first")
	}
	return api, nil
}

// authedCalendar wraps the session client in a calendar view so mutations
// refresh the event list.
func authedCalendar(c *cli.Context) (*projection.Calendar, error) {
	api, err := authedClient(c)
	if err != nil {
		return nil, err
	}
	return projection.NewCalendar(api), nil
}

// reportMutation prints the outcome of a mutation followed by the refreshed
// view. A failed refresh is reported after the confirmation.
func reportMutation(c *cli.Context, cal *projection.Calendar, msg string, refreshErr error) error {
	fmt.Fprintln(c.App.Writer, msg)
	if refreshErr != nil {
		return refreshErr
	}
	printItems(c, cal.View().Items)
	return nil
}

func password(c *cli.Context) (string, error) {
	if p := c.String("password"); p != "" {
		return p, nil
	}
	fmt.Fprint(c.App.ErrWriter, "Password: ")
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.App.ErrWriter)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{Name: "password", EnvVars: []string{"CALENDAR_PASSWORD"}, Usage: "skip the interactive prompt"}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and log in.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "phone"},
			passwordFlag(),
		},
		Action: func(c *cli.Context) error {
			api, err := apiClient(c)
			if err != nil {
				return err
			}
			pw, err := password(c)
			if err != nil {
				return err
			}
			req := client.RegisterRequest{Name: c.String("name"), Email: c.String("email"), Password: pw}
			if c.IsSet("phone") {
				phone := c.String("phone")
				req.Phone = &phone
			}
			res, err := api.Register(c.Context, req)
			if err != nil {
				return err
			}
			if err := saveToken(c.String("token-file"), res.Token); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Registered %s <%s>\n", res.User.Name, res.User.Email)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and remember the session.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			passwordFlag(),
		},
		Action: func(c *cli.Context) error {
			api, err := apiClient(c)
			if err != nil {
				return err
			}
			pw, err := password(c)
			if err != nil {
				return err
			}
			res, err := api.Login(c.Context, c.String("email"), pw)
			if err != nil {
				return err
			}
			if err := saveToken(c.String("token-file"), res.Token); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Logged in as %s\n", res.User.Email)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the saved session.",
		Action: func(c *cli.Context) error {
			return clearToken(c.String("token-file"))
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List your events ordered by start.",
		Action: func(c *cli.Context) error {
			api, err := authedClient(c)
			if err != nil {
				return err
			}
			cal := projection.NewCalendar(api)
			view, err := cal.SetAuthenticated(c.Context, true)
			if err != nil {
				return err
			}
			printItems(c, view.Items)
			return nil
		},
	}
}

func printItems(c *cli.Context, items []projection.Item) {
	if len(items) == 0 {
		fmt.Fprintln(c.App.Writer, "No events.")
		return
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tTITLE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ID, it.Start.Format(time.RFC3339), it.End.Format(time.RFC3339), it.Title)
	}
	_ = tw.Flush()
}

func eventFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "start", Required: required, Usage: "ISO 8601 timestamp"},
		&cli.StringFlag{Name: "end", Required: required, Usage: "ISO 8601 timestamp"},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "contacts"},
	}
}

func optional(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Create an event.",
		Flags: eventFlags(true),
		Action: func(c *cli.Context) error {
			cal, err := authedCalendar(c)
			if err != nil {
				return err
			}
			ev, err := cal.Create(c.Context, client.CreateEventRequest{
				Title:       c.String("title"),
				Description: optional(c, "description"),
				Contacts:    optional(c, "contacts"),
				StartDate:   c.String("start"),
				EndDate:     c.String("end"),
			})
			if ev == nil {
				return err
			}
			return reportMutation(c, cal, fmt.Sprintf("Created event %d", ev.ID), err)
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change some fields of an event. Pass an empty --description or --contacts to clear it.",
		ArgsUsage: "ID",
		Flags:     eventFlags(false),
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			cal, err := authedCalendar(c)
			if err != nil {
				return err
			}
			ev, err := cal.Update(c.Context, id, client.EventPatch{
				Title:       optional(c, "title"),
				Description: optional(c, "description"),
				Contacts:    optional(c, "contacts"),
				StartDate:   optional(c, "start"),
				EndDate:     optional(c, "end"),
			})
			if ev == nil {
				return err
			}
			return reportMutation(c, cal, fmt.Sprintf("Updated event %d", ev.ID), err)
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete an event.",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			cal, err := authedCalendar(c)
			if err != nil {
				return err
			}
			err = cal.Delete(c.Context, id)
			if err != nil && !errors.Is(err, projection.ErrRefresh) {
				return err
			}
			return reportMutation(c, cal, fmt.Sprintf("Deleted event %d", id), err)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download every event as iCalendar or CSV.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "ics", Usage: "ics or csv"},
			&cli.StringFlag{Name: "out", Usage: "write to a file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			api, err := authedClient(c)
			if err != nil {
				return err
			}
			var body string
			switch strings.ToLower(c.String("format")) {
			case "ics":
				body, err = api.ExportICS(c.Context)
			case "csv":
				body, err = api.ExportCSV(c.Context)
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
			if err != nil {
				return err
			}
			if out := c.String("out"); out != "" {
				return os.WriteFile(out, []byte(body), 0o644)
			}
			_, err = fmt.Fprint(c.App.Writer, body)
			return err
		},
	}
}

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Print a Google Calendar link for an event.",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			api, err := authedClient(c)
			if err != nil {
				return err
			}
			link, err := api.GoogleLink(c.Context, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, link)
			return nil
		},
	}
}

func idArg(c *cli.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected an event id, got %q", c.Args().First())
	}
	return id, nil
}
