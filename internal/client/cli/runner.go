package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-item-tracker/internal/client"
	"github.com/FACorreiaa/go-item-tracker/internal/client/ui"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const msgNotLoggedIn = "Not logged in. Run `tracker login` first."

// Options wires the runner to its terminal.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	// ReadPassword prompts without echo. Nil falls back to reading a line from Stdin.
	ReadPassword func(prompt string) (string, error)
	// RunUI starts the interactive list for the ui command.
	RunUI func(ctx context.Context, s *client.Session) error
}

type runner struct {
	opt     Options
	session *client.Session
	in      *bufio.Reader
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, s *client.Session, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp(opt.Stderr)
		return ExitUsage
	}
	r := &runner{opt: opt, session: s, in: bufio.NewReader(opt.Stdin)}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return ExitOK
	case "login":
		return r.login(ctx, a)
	case "register":
		return r.register(ctx, a)
	case "logout":
		return r.logout()
	case "health":
		return r.health(ctx)
	}

	// Every other command starts from the stored session. A rejected token is
	// dropped silently and the command runs logged out.
	s.Restore(ctx)

	switch cmd {
	case "whoami":
		return r.whoami()
	case "ls":
		return r.list(ctx, a)
	case "show":
		return r.show(ctx, a)
	case "add":
		return r.add(ctx, a)
	case "edit":
		return r.edit(ctx, a)
	case "rm":
		return r.remove(ctx, a)
	case "ui":
		if opt.RunUI == nil {
			r.fail("ui: not available")
			return ExitError
		}
		if err := opt.RunUI(ctx, s); err != nil {
			r.fail("ui: " + err.Error())
			return ExitError
		}
		return ExitOK
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return ExitUsage
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tracker - item tracker client

Usage:
  tracker <subcommand> [args]

Subcommands:
  login [-email E] [-password P]              Sign in and store the token
  register [-email E] [-name N] [-password P] Create an account and sign in
  logout                                      Forget the stored token
  whoami                                      Show the signed-in user
  ls [-status active|done] [-q text]          List items
  show <id>                                   Show one item
  add -title T [-description D] [-status S]   Create an item
  edit <id> [-title T] [-description D] [-status S]
                                              Change an item; unset flags keep their value
  rm <id> [-y]                                Delete an item after confirmation
  health                                      Check the server
  ui                                          Interactive list

Environment:
  TRACKER_API    server base URL (default http://localhost:3001)
  TRACKER_TOKEN  bearer token; overrides the stored credentials
`)
}

func (r *runner) ok(msg string)   { ok(r.opt.Stdout, msg) }
func (r *runner) fail(msg string) { fail(r.opt.Stderr, msg) }

func (r *runner) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.opt.Stderr)
	return fs
}

func (r *runner) readLine(prompt string) (string, error) {
	fmt.Fprint(r.opt.Stdout, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *runner) readPassword(prompt string) (string, error) {
	if r.opt.ReadPassword != nil {
		return r.opt.ReadPassword(prompt)
	}
	return r.readLine(prompt)
}

// prompted returns *v, asking for it when empty.
func (r *runner) prompted(v *string, prompt string, secret bool) error {
	if *v != "" {
		return nil
	}
	var err error
	if secret {
		*v, err = r.readPassword(prompt)
	} else {
		*v, err = r.readLine(prompt)
	}
	return err
}

func (r *runner) login(ctx context.Context, args []string) int {
	fs := r.newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if err := errors.Join(
		r.prompted(email, "Email: ", false),
		r.prompted(password, "Password: ", true),
	); err != nil {
		r.fail("login: " + err.Error())
		return ExitError
	}

	u, err := r.session.Login(ctx, *email, *password)
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}
	r.ok(fmt.Sprintf("logged in as %s <%s>", u.Name, u.Email))
	return ExitOK
}

func (r *runner) register(ctx context.Context, args []string) int {
	fs := r.newFlagSet("register")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if err := errors.Join(
		r.prompted(email, "Email: ", false),
		r.prompted(name, "Name: ", false),
		r.prompted(password, "Password: ", true),
	); err != nil {
		r.fail("register: " + err.Error())
		return ExitError
	}

	u, err := r.session.Register(ctx, types.RegisterRequest{Email: *email, Name: *name, Password: *password})
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}
	r.ok(fmt.Sprintf("registered and logged in as %s <%s>", u.Name, u.Email))
	return ExitOK
}

func (r *runner) logout() int {
	if err := r.session.Logout(); err != nil {
		r.fail("logout: " + err.Error())
		return ExitError
	}
	r.ok("logged out")
	return ExitOK
}

func (r *runner) whoami() int {
	u := r.session.User()
	if u == nil {
		r.fail(msgNotLoggedIn)
		return ExitError
	}
	fmt.Fprintf(r.opt.Stdout, "%s <%s>  %s\n", ui.TitleStyle.Render(u.Name), u.Email,
		ui.MutedStyle.Render(fmt.Sprintf("id %d, since %s", u.ID, u.CreatedAt.Local().Format(time.DateOnly))))
	return ExitOK
}

func (r *runner) health(ctx context.Context) int {
	h, err := r.session.Client().Health(ctx)
	if err != nil {
		r.fail("health: " + err.Error())
		return ExitError
	}
	state := ui.SuccessStyle.Render("ok")
	if !h.OK {
		state = ui.ErrorStyle.Render("down")
	}
	fmt.Fprintf(r.opt.Stdout, "%s  %s  %s  %s\n", r.session.Client().BaseURL(), state, h.Server,
		ui.MutedStyle.Render(h.Time.Local().Format(time.RFC3339)))
	if !h.OK {
		return ExitError
	}
	return ExitOK
}

func (r *runner) list(ctx context.Context, args []string) int {
	fs := r.newFlagSet("ls")
	status := fs.String("status", "", "active or done")
	q := fs.String("q", "", "text to match in title or description")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	items, err := r.session.Client().ListItems(ctx, *status, *q)
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}

	lines := []string{ui.Header(items), ""}
	if len(items) == 0 {
		lines = append(lines, ui.MutedStyle.Render("No items."))
	}
	for _, it := range items {
		lines = append(lines, ui.ItemLine(it))
	}
	panel(r.opt.Stdout, lines)
	return ExitOK
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("not an item id: %s", raw)
	}
	return id, nil
}

// idAndFlags accepts the id before or after the flags.
func idAndFlags(fs *flag.FlagSet, args []string) (int64, error) {
	var raw string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		raw, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if raw == "" {
		raw = fs.Arg(0)
	}
	if raw == "" {
		return 0, fmt.Errorf("usage: tracker %s <id>", fs.Name())
	}
	return parseID(raw)
}

func (r *runner) show(ctx context.Context, args []string) int {
	id, err := idAndFlags(r.newFlagSet("show"), args)
	if err != nil {
		r.fail(err.Error())
		return ExitUsage
	}

	it, err := r.session.Client().GetItem(ctx, id)
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}

	lines := []string{
		ui.TitleStyle.Render(it.Title),
		ui.MutedStyle.Render(fmt.Sprintf("#%d", it.ID)) + "  " + ui.StatusLabel(it.Status),
		"",
	}
	if it.Description != "" {
		lines = append(lines, it.Description, "")
	}
	lines = append(lines,
		ui.MutedStyle.Render("created "+it.CreatedAt.Local().Format(time.DateTime)),
		ui.MutedStyle.Render("updated "+it.UpdatedAt.Local().Format(time.DateTime)),
	)
	panel(r.opt.Stdout, lines)
	return ExitOK
}

func (r *runner) requireLogin() bool {
	if r.session.User() == nil {
		r.fail(msgNotLoggedIn)
		return false
	}
	return true
}

func (r *runner) add(ctx context.Context, args []string) int {
	fs := r.newFlagSet("add")
	title := fs.String("title", "", "item title")
	description := fs.String("description", "", "item description")
	status := fs.String("status", string(types.StatusActive), "active or done")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *title == "" && fs.NArg() > 0 {
		*title = strings.Join(fs.Args(), " ")
	}
	if !r.requireLogin() {
		return ExitError
	}

	it, err := r.session.Client().CreateItem(ctx, types.ItemInput{Title: *title, Description: *description, Status: *status})
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}
	r.ok(fmt.Sprintf("created #%d %s", it.ID, it.Title))
	return ExitOK
}

func (r *runner) edit(ctx context.Context, args []string) int {
	fs := r.newFlagSet("edit")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	status := fs.String("status", "", "active or done")
	id, err := idAndFlags(fs, args)
	if err != nil {
		r.fail(err.Error())
		return ExitUsage
	}
	if !r.requireLogin() {
		return ExitError
	}

	current, err := r.session.Client().GetItem(ctx, id)
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}

	// Updates replace every field, so unset flags carry the current values.
	in := types.ItemInput{Title: current.Title, Description: current.Description, Status: string(current.Status)}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			in.Title = *title
		case "description":
			in.Description = *description
		case "status":
			in.Status = *status
		}
	})

	it, err := r.session.Client().UpdateItem(ctx, id, in)
	if err != nil {
		r.fail(err.Error())
		return ExitError
	}
	r.ok(fmt.Sprintf("updated #%d %s", it.ID, it.Title))
	return ExitOK
}

func (r *runner) remove(ctx context.Context, args []string) int {
	fs := r.newFlagSet("rm")
	yes := fs.Bool("y", false, "skip the confirmation")
	id, err := idAndFlags(fs, args)
	if err != nil {
		r.fail(err.Error())
		return ExitUsage
	}
	if !r.requireLogin() {
		return ExitError
	}

	if !*yes {
		it, err := r.session.Client().GetItem(ctx, id)
		if err != nil {
			r.fail(err.Error())
			return ExitError
		}
		answer, err := r.readLine(fmt.Sprintf("Delete #%d %q? [y/N] ", it.ID, it.Title))
		if err != nil && !errors.Is(err, io.EOF) {
			r.fail(err.Error())
			return ExitError
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(r.opt.Stdout, ui.MutedStyle.Render("cancelled"))
			return ExitOK
		}
	}

	if err := r.session.Client().DeleteItem(ctx, id); err != nil {
		r.fail(err.Error())
		return ExitError
	}
	r.ok(fmt.Sprintf("deleted #%d", id))
	return ExitOK
}
