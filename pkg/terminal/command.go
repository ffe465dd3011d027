package terminal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"winnow/pkg/config"
	"winnow/service"
)

type cmdFn func(term *Term, args string) error

type command struct {
	aliases []string
	fn      cmdFn
	help    string
}

func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

type Commands struct {
	cmds   []command
	client service.Client
}

func NewCommands(client service.Client, cfg *config.Config) *Commands {
	c := &Commands{
		client: client,
	}

	c.cmds = []command{
		{
			aliases: []string{"help", "h"},
			fn:      c.help,
			help: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{
			aliases: []string{"regions", "lregions"},
			fn:      call(service.Regions),
			help:    "list the retained regions of the target, honoring the active filter.",
		},
		{
			aliases: []string{"filter"},
			fn:      call(service.Filter),
			help: `restrict scanning to regions whose pathname matches.

	filter <pathname|basename|regex> <pattern>`},
		{
			aliases: []string{"filter!"},
			fn:      call(service.FilterNot),
			help:    "like filter, but keep the regions that do not match.",
		},
		{
			aliases: []string{"reset"},
			fn:      call(service.Reset),
			help:    "reparse the target's memory map and drop the active filter.",
		},
		{
			aliases: []string{"search", "scan"},
			fn:      call(service.Scan),
			help: `populate the candidate set with every address matching a predicate.

	search <eq|ne|lt|le|gt|ge> <value> [aligned|unaligned]
	search range <low> <high> [gtlt|gelt|gtle|gele] [aligned|unaligned]

A repeated search appends its matches to the existing set.`},
		{
			aliases: []string{"narrow", "n"},
			fn:      call(service.Narrow),
			help: `re-read every candidate and keep those matching a predicate.

	narrow <eq|ne|lt|le|gt|ge> <value>
	narrow range <low> <high> [gtlt|gelt|gtle|gele]
	narrow <changed|unchanged|increased|decreased>`},
		{
			aliases: []string{"matches", "m"},
			fn:      call(service.Matches),
			help:    "print the current candidates as [id] address value lines.",
		},
		{
			aliases: []string{"dump"},
			fn:      call(service.Dump),
			help: `hexdump target memory.

	dump <addr|#id> <len>`},
		{
			aliases: []string{"set", "s"},
			fn:      call(service.Set),
			help: `write a value into the target.

	set <addr|#id> <value>`},
		{
			aliases: []string{"transcript"},
			fn:      transcript,
			help: `tee command output into a file.

	transcript <file>
	transcript off`},
		{
			aliases: []string{"exit", "quit", "q"},
			fn:      exit,
			help:    "exit winnow",
		},
	}

	if cfg != nil {
		c.mergeAliases(cfg.Aliases)
	}
	return c
}

// mergeAliases maps user-defined names onto existing commands; the
// remainder of the alias value is prepended to the arguments.
func (c *Commands) mergeAliases(aliases map[string][]string) {
	for name, target := range aliases {
		if len(target) == 0 {
			continue
		}
		for i := range c.cmds {
			if !c.cmds[i].match(target[0]) {
				continue
			}
			if len(target) == 1 {
				c.cmds[i].aliases = append(c.cmds[i].aliases, name)
				break
			}

			lead := strings.Join(target[1:], " ")
			fn := c.cmds[i].fn
			c.cmds = append(c.cmds, command{
				aliases: []string{name},
				fn: func(t *Term, args string) error {
					return fn(t, strings.TrimSpace(lead+" "+args))
				},
				help: fmt.Sprintf("alias for %q", strings.Join(target, " ")),
			})
			break
		}
	}
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) command {
	if cmdstr == "" {
		return command{aliases: []string{"nullcmd"}, fn: nullCommand}
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v
		}
	}

	return command{aliases: []string{"nocmd"}, fn: noCmdAvailable}
}

func (c *Commands) Call(cmdStr string, t *Term) error {
	cmd, argStr, _ := strings.Cut(cmdStr, " ")

	return c.Find(cmd).fn(t, argStr)
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		cmd := c.Find(strings.TrimSpace(args))
		if cmd.help == "" {
			return errNoCmd
		}
		fmt.Fprintln(t.stdout, cmd.help)
		return nil
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.help
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(t.stdout)
	return nil
}

// call builds the usual command body: forward to the server, print the
// reply.
func call(cmdType service.CmdType) cmdFn {
	return func(t *Term, args string) error {
		v, err := t.client.Call(cmdType, args)
		if err != nil {
			t.RedirectTo(os.Stderr)
			fmt.Fprintln(t.stdout, err.Error())
			return err
		}

		_, err = fmt.Fprintln(t.stdout, v)
		return err
	}
}

func transcript(t *Term, args string) error {
	args = strings.TrimSpace(args)
	switch args {
	case "":
		return errors.New("transcript wants a file name or off")
	case "off":
		return t.stdout.CloseTranscript()
	}
	return t.stdout.TranscriptTo(args)
}

type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exit(t *Term, args string) error {
	return ExitRequestError{}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, args string) error {
	return nil
}
