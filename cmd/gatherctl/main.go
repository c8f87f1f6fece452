package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/gatherhub/gatherly/pkg/client"
	"github.com/gatherhub/gatherly/pkg/session"
)

func main() {
	// .env is optional for the CLI; it only carries GATHERLY_API_URL.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gatherctl",
		Usage: "browse events, book tickets, and manage your gatherly account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the gatherly API",
				Value:   "http://localhost:8080",
				EnvVars: []string{"GATHERLY_API_URL"},
			},
		},
		Commands: []*cli.Command{
			signupCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			eventsCommand(),
			ticketsCommand(),
			profileCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newClient builds the session-backed API client. The durable backend lives
// under the user config dir; the ephemeral one lasts for this invocation.
func newClient(c *cli.Context) (*client.Client, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config dir: %w", err)
	}
	durable, err := session.NewFileStore(filepath.Join(configDir, "gatherly"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	manager := session.NewManager(durable, session.NewMemStore())
	if err := manager.Hydrate(); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return client.New(c.String("api"), manager), nil
}

// requireLogin is the route guard for protected commands.
func requireLogin(api *client.Client) (session.User, error) {
	switch session.Guard(api.Session()) {
	case session.Pending:
		return session.User{}, errors.New("session state not resolved yet")
	case session.RedirectLogin:
		return session.User{}, errors.New("not logged in: run `gatherctl login` first")
	}
	user, _ := api.Session().User()
	return user, nil
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "create an account and log in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.BoolFlag{Name: "remember", Usage: "keep the session across invocations"},
		},
		Action: func(c *cli.Context) error {
			api, err := newClient(c)
			if err != nil {
				return err
			}
			user, err := api.Signup(c.Context, client.SignupInput{
				Username: c.String("username"),
				Email:    c.String("email"),
				Password: c.String("password"),
			}, c.Bool("remember"))
			if err != nil {
				return err
			}
			fmt.Printf("welcome, %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.BoolFlag{Name: "remember", Usage: "keep the session across invocations"},
		},
		Action: func(c *cli.Context) error {
			api, err := newClient(c)
			if err != nil {
				return err
			}
			user, err := api.Login(c.Context, c.String("email"), c.String("password"), c.Bool("remember"))
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", user.Username)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "destroy the current session",
		Action: func(c *cli.Context) error {
			api, err := newClient(c)
			if err != nil {
				return err
			}
			if err := api.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the current session",
		Action: func(c *cli.Context) error {
			api, err := newClient(c)
			if err != nil {
				return err
			}
			user, err := requireLogin(api)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (id %d)\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "browse and manage events",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all events",
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					events, err := api.Events(c.Context)
					if err != nil {
						return err
					}
					if len(events) == 0 {
						fmt.Println("no events yet")
						return nil
					}
					me, _ := api.Session().User()
					for _, event := range events {
						owned := ""
						if event.CreatorID == me.ID && me.ID != 0 {
							owned = " (yours)"
						}
						fmt.Printf("#%d %s | %s @ %s, $%.2f, %d seats left%s\n",
							event.ID, event.Title, event.Date.Format("2006-01-02 15:04"),
							event.Location, event.Price, event.AvailableTickets, owned)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show one event",
				ArgsUsage: "<event-id>",
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					id, err := argID(c)
					if err != nil {
						return err
					}
					event, err := api.Event(c.Context, id)
					if err != nil {
						return err
					}
					fmt.Printf("#%d %s\n%s\nwhen: %s\nwhere: %s\nprice: $%.2f\nseats left: %d\n",
						event.ID, event.Title, event.Description,
						event.Date.Format(time.RFC1123), event.Location,
						event.Price, event.AvailableTickets)
					if event.Creator != nil {
						fmt.Printf("hosted by: %s\n", event.Creator.Username)
					}
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "create a new event",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "date", Required: true, Usage: "RFC 3339 or 2006-01-02T15:04"},
					&cli.StringFlag{Name: "location", Required: true},
					&cli.Float64Flag{Name: "price"},
					&cli.IntFlag{Name: "capacity", Value: 100},
				},
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					if _, err := requireLogin(api); err != nil {
						return err
					}
					date, err := parseDate(c.String("date"))
					if err != nil {
						return err
					}
					event, err := api.CreateEvent(c.Context, client.CreateEventInput{
						Title:       c.String("title"),
						Description: c.String("description"),
						Date:        date,
						Location:    c.String("location"),
						Price:       c.Float64("price"),
						Capacity:    c.Int("capacity"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("created event #%d %q\n", event.ID, event.Title)
					return nil
				},
			},
			{
				Name:      "update",
				Usage:     "change fields of an event you created",
				ArgsUsage: "<event-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "date", Usage: "RFC 3339 or 2006-01-02T15:04"},
					&cli.StringFlag{Name: "location"},
					&cli.Float64Flag{Name: "price"},
					&cli.IntFlag{Name: "capacity"},
				},
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					if _, err := requireLogin(api); err != nil {
						return err
					}
					id, err := argID(c)
					if err != nil {
						return err
					}
					var input client.UpdateEventInput
					changed := false
					if c.IsSet("title") {
						title := c.String("title")
						input.Title = &title
						changed = true
					}
					if c.IsSet("description") {
						description := c.String("description")
						input.Description = &description
						changed = true
					}
					if c.IsSet("date") {
						date, err := parseDate(c.String("date"))
						if err != nil {
							return err
						}
						input.Date = &date
						changed = true
					}
					if c.IsSet("location") {
						location := c.String("location")
						input.Location = &location
						changed = true
					}
					if c.IsSet("price") {
						price := c.Float64("price")
						input.Price = &price
						changed = true
					}
					if c.IsSet("capacity") {
						capacity := c.Int("capacity")
						input.Capacity = &capacity
						changed = true
					}
					if !changed {
						fmt.Println("nothing to update")
						return nil
					}
					event, err := api.UpdateEvent(c.Context, id, input)
					if err != nil {
						return err
					}
					fmt.Printf("updated event #%d %q\n", event.ID, event.Title)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete an event you created",
				ArgsUsage: "<event-id>",
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					me, err := requireLogin(api)
					if err != nil {
						return err
					}
					id, err := argID(c)
					if err != nil {
						return err
					}
					// Advisory check only; the server enforces ownership.
					event, err := api.Event(c.Context, id)
					if err != nil {
						return err
					}
					if event.CreatorID != me.ID {
						return fmt.Errorf("event #%d is not yours to delete", id)
					}
					if err := api.DeleteEvent(c.Context, id); err != nil {
						return err
					}
					fmt.Printf("deleted event #%d\n", id)
					return nil
				},
			},
		},
	}
}

func ticketsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tickets",
		Usage: "book and manage tickets",
		Subcommands: []*cli.Command{
			{
				Name:      "book",
				Usage:     "book a ticket for an event",
				ArgsUsage: "<event-id>",
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					if _, err := requireLogin(api); err != nil {
						return err
					}
					id, err := argID(c)
					if err != nil {
						return err
					}
					ticket, err := api.BookTicket(c.Context, id)
					if err != nil {
						return err
					}
					fmt.Printf("booked ticket #%d (%s/%s)\n", ticket.ID, ticket.Status, ticket.PaymentStatus)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list your tickets",
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					if _, err := requireLogin(api); err != nil {
						return err
					}
					tickets, err := api.MyTickets(c.Context)
					if err != nil {
						return err
					}
					if len(tickets) == 0 {
						fmt.Println("no tickets yet")
						return nil
					}
					for _, ticket := range tickets {
						title := fmt.Sprintf("event #%d", ticket.EventID)
						if ticket.Event != nil {
							title = ticket.Event.Title
						}
						fmt.Printf("#%d %s | %s/%s\n", ticket.ID, title, ticket.Status, ticket.PaymentStatus)
					}
					return nil
				},
			},
			{
				Name:      "confirm",
				Usage:     "pay for and confirm a pending ticket",
				ArgsUsage: "<ticket-id>",
				Action:    ticketTransition("confirm"),
			},
			{
				Name:      "cancel",
				Usage:     "cancel a ticket",
				ArgsUsage: "<ticket-id>",
				Action:    ticketTransition("cancel"),
			},
		},
	}
}

func ticketTransition(action string) cli.ActionFunc {
	return func(c *cli.Context) error {
		api, err := newClient(c)
		if err != nil {
			return err
		}
		if _, err := requireLogin(api); err != nil {
			return err
		}
		id, err := argID(c)
		if err != nil {
			return err
		}
		var ticket client.Ticket
		if action == "confirm" {
			ticket, err = api.ConfirmTicket(c.Context, id)
		} else {
			ticket, err = api.CancelTicket(c.Context, id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("ticket #%d is now %s/%s\n", ticket.ID, ticket.Status, ticket.PaymentStatus)
		return nil
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "manage your profile",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "change your username",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
				},
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					me, err := requireLogin(api)
					if err != nil {
						return err
					}
					username := strings.TrimSpace(c.String("username"))
					if username == "" || username == me.Username {
						fmt.Println("nothing to update")
						return nil
					}
					user, err := api.UpdateProfile(c.Context, username)
					if err != nil {
						return err
					}
					fmt.Printf("profile updated: you are now %s\n", user.Username)
					return nil
				},
			},
		},
	}
}

func argID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one id argument")
	}
	var id int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Args().First())
	}
	return id, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want RFC 3339 or 2006-01-02T15:04)", raw)
}
