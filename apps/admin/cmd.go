package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp            = errors.New("help provided")
	errNotLoggedIn     = errors.New("not logged in")
	errAlreadyLoggedIn = errors.New("already logged in, run logout first")
)

// navigator prints where the console would go next.
type navigator struct {
	out      io.Writer
	location string
}

var _ session.Navigator = (*navigator)(nil)

func (n *navigator) Location() string { return n.location }

func (n *navigator) Navigate(path string) {
	n.location = path
	if path == session.LoginPath {
		fmt.Fprintln(n.out, "Your session has ended. Sign in again with: login -email EMAIL")
		return
	}
	fmt.Fprintf(n.out, "Home: %s\n", path)
}

type commandLine struct {
	out        io.Writer
	store      *session.Store
	record     *session.Record
	client     *backend.Client
	nav        *navigator
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL        - sign in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                    - sign out & forget the stored session")
	fmt.Fprintln(cli.out, "  whoami [-remote]          - show the signed in account (-remote asks the backend)")
	fmt.Fprintln(cli.out, "  routes                    - list the console pages and whether you may open them")
	fmt.Fprintln(cli.out, "  get -path PATH [-page N]  - GET a backend path with the current session")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginEmail := loginCmd.String("email", "", "The account email. The password will be prompted next.")

	whoamiCmd := flag.NewFlagSet("whoami", flag.ContinueOnError)
	whoamiCmd.SetOutput(cli.out)
	whoamiRemote := whoamiCmd.Bool("remote", false, "Show the account as the backend sees it instead of the stored one")

	getCmd := flag.NewFlagSet("get", flag.ContinueOnError)
	getCmd.SetOutput(cli.out)
	getPath := getCmd.String("path", "", "The backend path, eg. /regions")
	getPage := getCmd.Int("page", 0, "The page to fetch, if the path is paginated")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		if err := cli.publicOnly(); err != nil {
			return err
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		if err := whoamiCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.whoami(ctx, *whoamiRemote)
	case "routes":
		return cli.routes()
	case "get":
		if err := getCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *getPath == "" {
			getCmd.Usage()
			return errHelp
		}
		return cli.get(ctx, *getPath, *getPage)
	default:
		cli.printUsage()
		return errHelp
	}
}

// errorMessage lists field errors one by one instead of the raw validator output.
func errorMessage(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, fErr := range vErr.Fields {
			msgs = append(msgs, fErr.Error)
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
