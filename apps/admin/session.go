package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/session"
)

// publicOnly sends a signed in user home instead of showing the login prompt.
func (cli *commandLine) publicOnly() error {
	if out := guard.PublicOnly(cli.store.Session()); out.Redirects() {
		cli.nav.Navigate(out.Location)
		return errAlreadyLoggedIn
	}
	return nil
}

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	cli.nav.location = session.LoginPath
	svc := session.NewLoginService(session.LoginDeps{
		Store:         cli.store,
		Record:        cli.record,
		Authenticator: cli.client,
		Navigator:     cli.nav,
		Validate:      cli.validate,
		Translator:    cli.translator,
		Logger:        cli.logger,
	})
	if _, err := svc.Login(ctx, session.Credentials{Email: email, Password: pwd}); err != nil {
		return err
	}

	sess := cli.store.Session()
	fmt.Fprintf(cli.out, "Signed in as %s (%s)\n", sess.Account.Email, sess.Role().Name())
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	cli.store.Logout(ctx)
	fmt.Fprintln(cli.out, "Signed out")
	return nil
}

// whoami prints the stored account, or the one behind the token when remote is set.
func (cli *commandLine) whoami(ctx context.Context, remote bool) error {
	sess := cli.store.Session()
	if !sess.Authenticated {
		return errNotLoggedIn
	}

	acc, prof := *sess.Account, sess.Profile
	if remote {
		cli.nav.location = "/profile"
		remoteAcc, remoteProf, err := cli.client.Me(ctx)
		if err != nil {
			return err
		}
		acc, prof = remoteAcc, &remoteProf
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Email\t%s\n", acc.Email)
	fmt.Fprintf(w, "Role\t%s\n", acc.Role.Name())
	fmt.Fprintf(w, "Account ID\t%s\n", acc.ID)
	if prof != nil {
		for _, key := range prof.Keys() {
			fmt.Fprintf(w, "%s\t%s\n", key, prof.String(key))
		}
	}
	if exp, ok := session.TokenExpiry(sess.Token); ok {
		fmt.Fprintf(w, "Token expires\t%s\n", exp.Local().Format(time.RFC1123))
	}
	return w.Flush()
}

// routes evaluates the route guards against the current session.
func (cli *commandLine) routes() error {
	sess := cli.store.Session()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tTITLE\tDECISION")
	for _, route := range guard.Routes {
		out := guard.Authorize(sess, route.Roles)
		decision := out.Decision.String()
		if out.Redirects() {
			decision += " -> " + out.Location
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", route.Path, route.Title, decision)
	}
	return w.Flush()
}

func (cli *commandLine) get(ctx context.Context, path string, page int) error {
	cli.nav.location = path
	var q url.Values
	if page > 0 {
		q = url.Values{"page": {strconv.Itoa(page)}}
	}
	raw, err := cli.client.Get(ctx, path, q)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err = json.Indent(&pretty, raw, "", "  "); err != nil {
		return errors.Wrap(err, "formatting answer")
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(cli.out)
	return err
}
