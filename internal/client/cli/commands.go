package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/client/client"
)

type command struct {
	name  string
	usage string
	about string
	auth  bool
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "register", about: "create an account", run: (*App).Register},
	{name: "login", about: "sign in", run: (*App).Login},
	{name: "logout", about: "sign out", auth: true, run: (*App).Logout},
	{name: "whoami", about: "show the signed-in user, role and permissions", auth: true, run: (*App).WhoAmI},

	{name: "dashboard", about: "project statistics and deadlines", auth: true, run: (*App).Dashboard},
	{name: "projects", about: "list every project", auth: true, run: (*App).Projects},
	{name: "myprojects", about: "list the projects you are assigned to", auth: true, run: (*App).MyProjects},
	{name: "project", usage: "<id>", about: "show project details", auth: true, run: (*App).ShowProject},
	{name: "newproject", about: "create a project", auth: true, run: (*App).NewProject},
	{name: "editproject", usage: "<id>", about: "edit a project", auth: true, run: (*App).EditProject},
	{name: "deleteproject", usage: "<id>", about: "delete a project and its files", auth: true, run: (*App).DeleteProject},

	{name: "files", usage: "<project-id>", about: "list project files", auth: true, run: (*App).Files},
	{name: "upload", usage: "<project-id> <path>...", about: "upload files to a project", auth: true, run: (*App).Upload},
	{name: "download", usage: "<project-id> <file-id>", about: "download a project file", auth: true, run: (*App).Download},
	{name: "deletefile", usage: "<project-id> <file-id>", about: "delete a project file", auth: true, run: (*App).DeleteFile},

	{name: "team", about: "list team members", auth: true, run: (*App).Team},
	{name: "addmember", usage: "[id]", about: "add a team member, or edit one by id", auth: true, run: (*App).SaveMember},
	{name: "deletemember", usage: "<id>", about: "delete a team member", auth: true, run: (*App).DeleteMember},
	{name: "avatar", usage: "<member-id> <path>", about: "upload a team member photo", auth: true, run: (*App).Avatar},

	{name: "summary", usage: "[year]", about: "monthly project and budget summary", auth: true, run: (*App).Summary},
	{name: "activities", usage: "[limit]", about: "recent activity", auth: true, run: (*App).Activities},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (a *App) execute(ctx context.Context, name string, args []string) error {
	c, ok := lookup(name)
	if !ok {
		return errUnknownCommand
	}
	if c.auth && !a.isLoggedIn() {
		return client.ErrNotSignedIn
	}
	return c.run(a, ctx, args)
}

func (a *App) help() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	loggedIn := a.isLoggedIn()
	for _, c := range commands {
		if c.auth != loggedIn {
			continue
		}
		name := c.name
		if c.usage != "" {
			name += " " + c.usage
		}
		fmt.Fprintf(&b, "  %-32s %s\n", name, c.about)
	}
	b.WriteString("  help                             this list\n")
	b.WriteString("  exit                             leave the program")
	return b.String()
}

var errUsage = errors.New("usage")

func usage(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

// describe turns an error into the line shown at the prompt.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, client.ErrNotSignedIn):
		return "please login first"
	case errors.Is(err, client.ErrForbidden):
		return "permission denied (" + err.Error() + ")"
	case errors.Is(err, client.ErrUnauthorized):
		return "not signed in or session expired"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrNotFound):
		return "not found"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	return err.Error()
}
