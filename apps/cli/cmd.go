package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/olympia/core/keycase"
	"github.com/trezcool/olympia/core/qcm"
	"github.com/trezcool/olympia/services/api"
)

const (
	caseCamel = "camel"
	caseSnake = "snake"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	client *api.Client
	in     io.Reader
	out    io.Writer
}

func newCommandLine(client *api.Client, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{client: client, in: in, out: out}
}

type cliArgs struct {
	Keys     keysCmd     `cmd:"" help:"Convert the keys of a JSON document."`
	Key      keyCmd      `cmd:"" help:"Convert individual keys."`
	Login    loginCmd    `cmd:"" help:"Log in and show the token's claims."`
	Sessions sessionsCmd `cmd:"" help:"List QCM sessions."`
	Attempt  attemptCmd  `cmd:"" help:"Show a QCM attempt and its countdown."`
}

func (cli *commandLine) run(args []string) error {
	var (
		cmds   cliArgs
		exited bool
	)
	parser, err := kong.New(&cmds,
		kong.Name("olympia"),
		kong.Description("Olympia operator CLI."),
		kong.Writers(cli.out, cli.out),
		kong.Exit(func(int) { exited = true }),
	)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"--help"}
	}

	ctx, err := parser.Parse(args)
	if exited {
		return errHelp
	}
	if err != nil {
		return err
	}
	return ctx.Run(cli)
}

// renamers returns the key and document converters of a target case.
func renamers(target string) (func(string) string, func(interface{}) interface{}) {
	if target == caseSnake {
		return keycase.ToSnakeKey, keycase.DeepToSnake
	}
	return keycase.ToCamelKey, keycase.DeepToCamel
}

type keysCmd struct {
	Case  string `arg:"" enum:"camel,snake" help:"Target case: camel or snake."`
	Input string `short:"i" type:"existingfile" help:"Path to input JSON file. If not specified, reads from stdin."`
	Check bool   `help:"Fail when keys of an object collide once converted."`
}

func (cmd *keysCmd) Run(cli *commandLine) error {
	r := cli.in
	if cmd.Input != "" {
		f, err := os.Open(cmd.Input)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()
		r = f
	}

	doc, err := keycase.Decode(r)
	if err != nil {
		return errors.Wrap(err, "reading JSON document")
	}
	rename, convert := renamers(cmd.Case)
	if cmd.Check {
		if paths := keycase.Collisions(doc, rename); len(paths) > 0 {
			return errors.Errorf("colliding keys: %s", strings.Join(paths, ", "))
		}
	}

	data, err := json.MarshalIndent(convert(doc), "", "  ")
	if err != nil {
		return errors.Wrap(err, "writing JSON document")
	}
	_, err = fmt.Fprintln(cli.out, string(data))
	return err
}

type keyCmd struct {
	Case string   `arg:"" enum:"camel,snake" help:"Target case: camel or snake."`
	Keys []string `arg:"" help:"Keys to convert."`
}

func (cmd *keyCmd) Run(cli *commandLine) error {
	rename, _ := renamers(cmd.Case)
	for _, key := range cmd.Keys {
		if _, err := fmt.Fprintln(cli.out, rename(key)); err != nil {
			return err
		}
	}
	return nil
}

// AuthFlags logs in before running a command when a username is given.
type AuthFlags struct {
	Username string `short:"u" help:"Username or email. The password will be prompted next."`
}

func (af AuthFlags) login(cli *commandLine) (api.Claims, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return api.Claims{}, errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return api.Claims{}, errors.New("password is required")
	}
	return cli.client.Login(context.Background(), af.Username, string(pwd))
}

func (af AuthFlags) loginIfNeeded(cli *commandLine) error {
	if af.Username == "" {
		return nil
	}
	_, err := af.login(cli)
	return err
}

type loginCmd struct {
	Auth AuthFlags `embed:""`
}

func (cmd *loginCmd) Run(cli *commandLine) error {
	if cmd.Auth.Username == "" {
		return errors.New("username is required")
	}
	claims, err := cmd.Auth.login(cli)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Subject:\t%s\n", claims.Subject)
	fmt.Fprintf(w, "Username:\t%s\n", claims.Username)
	fmt.Fprintf(w, "Email:\t%s\n", claims.Email)
	fmt.Fprintf(w, "Roles:\t%s\n", strings.Join(claims.Roles, ", "))
	if exp := claims.Expiry(); !exp.IsZero() {
		fmt.Fprintf(w, "Expires:\t%s\n", exp.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

type sessionsCmd struct {
	Auth AuthFlags `embed:""`
}

func (cmd *sessionsCmd) Run(cli *commandLine) error {
	if err := cmd.Auth.loginIfNeeded(cli); err != nil {
		return err
	}
	sessions, err := cli.client.ListSessions(context.Background())
	if err != nil {
		return err
	}

	now := nowFunc()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tDURATION\tSTARTS\tENDS\tOPEN")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			s.ID, s.Title, s.Level, s.Duration(),
			s.StartsAt.UTC().Format(time.RFC3339), s.EndsAt.UTC().Format(time.RFC3339), s.IsOpen(now),
		)
	}
	return w.Flush()
}

type attemptCmd struct {
	Auth AuthFlags `embed:""`
	ID   string    `arg:"" help:"Attempt ID."`
}

func (cmd *attemptCmd) Run(cli *commandLine) error {
	if err := cmd.Auth.loginIfNeeded(cli); err != nil {
		return err
	}
	attempt, err := cli.client.GetAttempt(context.Background(), cmd.ID)
	if err != nil {
		return err
	}

	now := nowFunc()
	status := attempt.Status
	if attempt.Status == qcm.StatusInProgress && attempt.Expired(now) {
		status = qcm.StatusExpired
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Attempt:\t%s\n", attempt.ID)
	fmt.Fprintf(w, "Session:\t%s\n", attempt.SessionID)
	fmt.Fprintf(w, "Status:\t%s\n", status)
	fmt.Fprintf(w, "Remaining:\t%s\n", qcm.FormatCountdown(attempt.Remaining(now)))
	fmt.Fprintf(w, "Answered:\t%d/%d\n", len(attempt.Answers), len(attempt.Questions))
	fmt.Fprintf(w, "Tab switches:\t%d\n", attempt.TabSwitches)
	return w.Flush()
}
